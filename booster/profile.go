package booster

const (
	// ProgramName is the booster executable resolved on PATH at activation
	// and the token the classifier matches against spawned command lines.
	ProgramName = "lsp-booster"

	// DefaultFalseToken stands in for JSON false inside binary payloads.
	// It is handed to the booster as a launch argument so both ends of the
	// stream agree on it.
	DefaultFalseToken = ":json-false"

	// argSeparator marks where the wrapped server command begins.
	argSeparator = "--"
)

// Profile is a fixed booster invocation prefix. The profile arguments always
// go in front of the wrapped server command, never interleaved with it.
type Profile struct {
	Name string
	args []string
}

// FullProfile re-encodes server output into the binary wire format.
func FullProfile(program, falseToken string) Profile {
	if falseToken == "" {
		falseToken = DefaultFalseToken
	}
	return Profile{
		Name: "full",
		args: []string{program, "--json-false-value", falseToken, argSeparator},
	}
}

// IOOnlyProfile buffers server output without format translation.
func IOOnlyProfile(program string) Profile {
	return Profile{
		Name: "io-only",
		args: []string{program, "--disable-format-translation", argSeparator},
	}
}

// Args returns a copy of the invocation prefix.
func (p Profile) Args() []string {
	return append([]string(nil), p.args...)
}

// Wrap returns a fresh argv with the profile prefix in front of command.
// Command elements are carried over verbatim.
func (p Profile) Wrap(command []string) []string {
	argv := make([]string, 0, len(p.args)+len(command))
	argv = append(argv, p.args...)
	return append(argv, command...)
}

// Rewrite builds the argv to spawn in place of command. A malformed command
// is returned unchanged rather than failing the launch, as is a command that
// targets a remote workspace while noRemoteBoost is set. The returned slice
// is always a fresh one; command is never mutated.
//
// Rewrite is invoked exactly once per launch. It does not detect an already
// wrapped command; callers must not feed its output back in.
func Rewrite(command []string, remote, ioOnly, noRemoteBoost bool) []string {
	if len(command) == 0 || command[0] == "" {
		return command
	}
	if noRemoteBoost && remote {
		return command
	}
	if ioOnly {
		return IOOnlyProfile(ProgramName).Wrap(command)
	}
	return FullProfile(ProgramName, DefaultFalseToken).Wrap(command)
}
