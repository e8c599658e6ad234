package executor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/sakif/practice-platform/internal/problemtype"
)

// newMarker returns the line that separates what the solution printed from
// the value it returned. The harness prints it last and the last occurrence
// wins. Each run gets its own, so a solution cannot print one in advance.
func newMarker() string {
	return "\n@@RESULT-" + strings.ReplaceAll(uuid.NewString(), "-", "") + "@@\n"
}

// call is the method invocation a harness performs.
type call struct {
	Method string
	Args   []any
	Output problemtype.OutputKind
	Marker string
}

func newCall(d problemtype.Descriptor, in problemtype.Input, marker string) call {
	return call{Method: d.Method, Args: in.Args(), Output: d.Output, Marker: marker}
}

// JavaScript and Python read their arguments from input.json.
func jsonInput(c call) (string, error) {
	b, err := json.Marshal(c.Args)
	if err != nil {
		return "", fmt.Errorf("encoding arguments: %w", err)
	}
	return string(b), nil
}

// Java and C++ read input.txt: ints as decimal tokens, arrays as a length
// followed by elements, strings as a byte length, one newline, then raw bytes.
// No quoting means arbitrary strings survive unchanged.
func tokenInput(c call) (string, error) {
	var b strings.Builder
	writeStr := func(s string) {
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte('\n')
		b.WriteString(s)
		b.WriteByte('\n')
	}
	for i, arg := range c.Args {
		switch v := arg.(type) {
		case int:
			b.WriteString(strconv.Itoa(v))
			b.WriteByte('\n')
		case []int:
			b.WriteString(strconv.Itoa(len(v)))
			for _, n := range v {
				b.WriteByte(' ')
				b.WriteString(strconv.Itoa(n))
			}
			b.WriteByte('\n')
		case string:
			writeStr(v)
		case []string:
			b.WriteString(strconv.Itoa(len(v)))
			b.WriteByte('\n')
			for _, s := range v {
				writeStr(s)
			}
		default:
			return "", fmt.Errorf("argument %d: unsupported type %T", i, arg)
		}
	}
	return b.String(), nil
}

func renderJavaScript(code string, c call) (map[string]string, error) {
	input, err := jsonInput(c)
	if err != nil {
		return nil, err
	}

	var format string
	switch c.Output {
	case problemtype.IntArray:
		format = `(Array.isArray(v) || ArrayBuffer.isView(v)) ? '[' + Array.from(v).join(',') + ']' : String(v)`
	default:
		format = `String(v)`
	}

	main := fmt.Sprintf(`%s

;(function () {
  const __args = JSON.parse(require('fs').readFileSync('input.json', 'utf8'));
  let __fn;
  if (typeof %[2]s === 'function') {
    __fn = %[2]s;
  } else if (typeof Solution === 'function') {
    const __s = new Solution();
    __fn = __s.%[2]s.bind(__s);
  } else {
    throw new Error('%[2]s is not defined');
  }
  const __fmt = (v) => %[3]s;
  const __r = __fn(...__args);
  process.stdout.write(%[4]s + __fmt(__r) + '\n');
})();
`, code, c.Method, format, strconv.Quote(c.Marker))

	return map[string]string{"main.js": main, "input.json": input}, nil
}

func renderPython(code string, c call) (map[string]string, error) {
	input, err := jsonInput(c)
	if err != nil {
		return nil, err
	}

	var format string
	switch c.Output {
	case problemtype.IntArray:
		format = `"[" + ",".join(str(int(x)) for x in v) + "]" if isinstance(v, (list, tuple)) else str(v)`
	case problemtype.Boolean:
		format = `("true" if v else "false") if isinstance(v, bool) else str(v)`
	default:
		format = `str(v)`
	}

	main := fmt.Sprintf(`from typing import *
import json as _harness_json
import sys as _harness_sys

%s


def _harness_fmt(v):
    return %s


if __name__ == "__main__":
    with open("input.json", encoding="utf-8") as _f:
        _harness_args = _harness_json.load(_f)
    if "Solution" in globals() and hasattr(Solution, %[3]q):
        _harness_r = Solution().%[3]s(*_harness_args)
    else:
        _harness_r = %[3]s(*_harness_args)
    _harness_sys.stdout.write(%[4]s + _harness_fmt(_harness_r) + "\n")
    _harness_sys.stdout.flush()
`, code, format, c.Method, strconv.Quote(c.Marker))

	return map[string]string{"main.py": main, "input.json": input}, nil
}

// Java: the user's class goes to Solution.java, the harness to Main.java.
func renderJava(code string, c call) (map[string]string, error) {
	input, err := tokenInput(c)
	if err != nil {
		return nil, err
	}

	var decls, names []string
	for i, arg := range c.Args {
		name := fmt.Sprintf("a%d", i)
		var decl string
		switch arg.(type) {
		case int:
			decl = fmt.Sprintf("int %s = in.nextInt();", name)
		case []int:
			decl = fmt.Sprintf("int[] %s = in.nextInts();", name)
		case string:
			decl = fmt.Sprintf("String %s = in.nextStr();", name)
		case []string:
			decl = fmt.Sprintf("String[] %s = in.nextStrs();", name)
		default:
			return nil, fmt.Errorf("argument %d: unsupported type %T", i, arg)
		}
		decls = append(decls, decl)
		names = append(names, name)
	}

	format := "String.valueOf(r)"
	if c.Output == problemtype.IntArray {
		format = "fmt(r)"
	}

	main := fmt.Sprintf(`import java.nio.charset.StandardCharsets;
import java.nio.file.Files;
import java.nio.file.Paths;
import java.util.*;

public class Main {
    static final class Input {
        private final byte[] b;
        private int pos;

        Input(byte[] b) { this.b = b; }

        private void skipSpace() {
            while (pos < b.length && Character.isWhitespace(b[pos])) pos++;
        }

        int nextInt() {
            skipSpace();
            boolean neg = false;
            if (b[pos] == '-') { neg = true; pos++; }
            long n = 0;
            while (pos < b.length && b[pos] >= '0' && b[pos] <= '9') n = n * 10 + (b[pos++] - '0');
            return (int) (neg ? -n : n);
        }

        int[] nextInts() {
            int[] v = new int[nextInt()];
            for (int i = 0; i < v.length; i++) v[i] = nextInt();
            return v;
        }

        String nextStr() {
            int n = nextInt();
            pos++;
            String s = new String(b, pos, n, StandardCharsets.UTF_8);
            pos += n;
            return s;
        }

        String[] nextStrs() {
            String[] v = new String[nextInt()];
            for (int i = 0; i < v.length; i++) v[i] = nextStr();
            return v;
        }
    }

    static String fmt(int[] v) {
        StringBuilder sb = new StringBuilder("[");
        for (int i = 0; i < v.length; i++) {
            if (i > 0) sb.append(',');
            sb.append(v[i]);
        }
        return sb.append(']').toString();
    }

    static String fmt(Collection<?> v) {
        StringBuilder sb = new StringBuilder("[");
        boolean first = true;
        for (Object x : v) {
            if (!first) sb.append(',');
            sb.append(x);
            first = false;
        }
        return sb.append(']').toString();
    }

    static String fmt(Object v) { return String.valueOf(v); }

    public static void main(String[] args) throws Exception {
        Input in = new Input(Files.readAllBytes(Paths.get("input.txt")));
        %s
        Solution s = new Solution();
        var r = s.%s(%s);
        System.out.print(%s + %s + "\n");
        System.out.flush();
    }
}
`, strings.Join(decls, "\n        "), c.Method, strings.Join(names, ", "), strconv.Quote(c.Marker), format)

	solution := "import java.util.*;\nimport java.util.stream.*;\n\n" + code + "\n"

	return map[string]string{"Solution.java": solution, "Main.java": main, "input.txt": input}, nil
}

func renderCPP(code string, c call) (map[string]string, error) {
	input, err := tokenInput(c)
	if err != nil {
		return nil, err
	}

	var decls, names []string
	for i, arg := range c.Args {
		name := fmt.Sprintf("a%d", i)
		var decl string
		switch arg.(type) {
		case int:
			decl = fmt.Sprintf("int %s = harness_int(in);", name)
		case []int:
			decl = fmt.Sprintf("vector<int> %s = harness_ints(in);", name)
		case string:
			decl = fmt.Sprintf("string %s = harness_str(in);", name)
		case []string:
			decl = fmt.Sprintf("vector<string> %s = harness_strs(in);", name)
		default:
			return nil, fmt.Errorf("argument %d: unsupported type %T", i, arg)
		}
		decls = append(decls, decl)
		names = append(names, name)
	}

	var format string
	switch c.Output {
	case problemtype.IntArray:
		format = "harness_fmt_ints(r)"
	case problemtype.Boolean:
		format = `string(r ? "true" : "false")`
	default:
		format = "string(r)"
	}

	main := fmt.Sprintf(`#include <bits/stdc++.h>
using namespace std;

%s

static int harness_int(istream& in) { long long n; in >> n; return (int) n; }

static vector<int> harness_ints(istream& in) {
    size_t n; in >> n;
    vector<int> v(n);
    for (size_t i = 0; i < n; i++) v[i] = harness_int(in);
    return v;
}

static string harness_str(istream& in) {
    size_t n; in >> n;
    in.get();
    string s(n, '\0');
    if (n > 0) in.read(&s[0], (streamsize) n);
    return s;
}

static vector<string> harness_strs(istream& in) {
    size_t n; in >> n;
    vector<string> v;
    v.reserve(n);
    for (size_t i = 0; i < n; i++) v.push_back(harness_str(in));
    return v;
}

template <class C>
static string harness_fmt_ints(const C& v) {
    string out = "[";
    bool first = true;
    for (const auto& x : v) {
        if (!first) out += ",";
        out += to_string(x);
        first = false;
    }
    return out + "]";
}

int main() {
    ifstream in("input.txt", ios::binary);
    %s
    Solution s;
    auto r = s.%s(%s);
    cout << %s << %s << "\n";
    cout.flush();
    return 0;
}
`, code, strings.Join(decls, "\n    "), c.Method, strings.Join(names, ", "), strconv.Quote(c.Marker), format)

	return map[string]string{"main.cpp": main, "input.txt": input}, nil
}

// splitOutput separates user prints from the harness value.
func splitOutput(out, marker string) (logs, value string, ok bool) {
	i := strings.LastIndex(out, marker)
	if i < 0 {
		return out, "", false
	}
	value = strings.TrimSuffix(out[i+len(marker):], "\n")
	return out[:i], value, true
}
