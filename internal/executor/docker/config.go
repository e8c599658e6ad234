package docker

// Config holds the configuration for Docker execution.
type Config struct {
	// Image must contain node, python3, javac/java and g++.
	Image string
	// MemoryLimit is the maximum amount of memory a container can use (in bytes).
	MemoryLimit int64
	// CPULimit is the number of CPUs a container can use.
	CPULimit float64
	// PidsLimit caps the processes a solution can fork.
	PidsLimit int64
	// PoolSize is the number of pre-warmed containers to maintain.
	PoolSize int
	// MountPath is the container-private directory a run's files are
	// unpacked into. It is also the working directory of every command.
	MountPath string
}

// DefaultConfig provides defaults for the multi-language runner image.
func DefaultConfig() Config {
	return Config{
		Image: "practice-runner:latest",
		// 256 MB, the JVM needs more than the interpreters
		MemoryLimit: 256 * 1024 * 1024,
		CPULimit:    1,
		PidsLimit:   64,
		PoolSize:    3,
		MountPath:   "/sandbox",
	}
}
