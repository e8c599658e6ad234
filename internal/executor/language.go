package executor

import (
	"fmt"
	"strings"
)

// Language is one of the fixed set of languages the sandbox can run.
type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
	LanguageJava       Language = "java"
	LanguageCPP        Language = "cpp"
)

// Languages lists every supported language in display order.
func Languages() []Language {
	return []Language{LanguageJavaScript, LanguagePython, LanguageJava, LanguageCPP}
}

// IsValid checks if the language is supported
func (l Language) IsValid() bool {
	switch l {
	case LanguageJavaScript, LanguagePython, LanguageJava, LanguageCPP:
		return true
	default:
		return false
	}
}

func (l Language) String() string {
	return string(l)
}

// ParseLanguage converts a request value to a Language. It accepts the
// aliases the editor uses ("js", "py", "c++").
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "javascript", "js", "node":
		return LanguageJavaScript, nil
	case "python", "py", "python3":
		return LanguagePython, nil
	case "java":
		return LanguageJava, nil
	case "cpp", "c++", "cxx":
		return LanguageCPP, nil
	}
	return "", fmt.Errorf("unsupported language: %s", s)
}

// Toolchain describes how one language is built and run inside a scratch
// directory. Commands run with the scratch directory as working directory.
type Toolchain struct {
	Language Language
	// Compile is empty for interpreted languages.
	Compile []string
	Run     []string
	// render produces the files to write: user code wrapped by the harness.
	render func(code string, call call) (map[string]string, error)
}

// DefaultToolchains returns the toolchain table used by every backend.
func DefaultToolchains() map[Language]Toolchain {
	return map[Language]Toolchain{
		LanguageJavaScript: {
			Language: LanguageJavaScript,
			Run:      []string{"node", "main.js"},
			render:   renderJavaScript,
		},
		LanguagePython: {
			Language: LanguagePython,
			Run:      []string{"python3", "-u", "main.py"},
			render:   renderPython,
		},
		LanguageJava: {
			Language: LanguageJava,
			Compile:  []string{"javac", "-encoding", "UTF-8", "-d", ".", "Solution.java", "Main.java"},
			Run:      []string{"java", "-Xmx256m", "-cp", ".", "Main"},
			render:   renderJava,
		},
		LanguageCPP: {
			Language: LanguageCPP,
			Compile:  []string{"g++", "-std=c++17", "-O2", "-pipe", "-o", "main", "main.cpp"},
			Run:      []string{"./main"},
			render:   renderCPP,
		},
	}
}
