package booster

import (
	"fmt"
	"log"
	"os/exec"
	"sync"

	"github.com/sourcegraph/jsonrpc2"
)

// Options configures the booster feature.
type Options struct {
	// Program overrides the booster executable name.
	Program string
	// FalseToken overrides the JSON false stand-in passed to the booster.
	FalseToken string
	// NoRemoteBoost leaves commands targeting remote workspaces untouched.
	NoRemoteBoost bool
	// IOOnly restricts the booster to stream buffering, without format
	// translation.
	IOOnly bool
}

func (o Options) program() string {
	if o.Program != "" {
		return o.Program
	}
	return ProgramName
}

func (o Options) falseToken() string {
	if o.FalseToken != "" {
		return o.FalseToken
	}
	return DefaultFalseToken
}

// Feature is the composition root for the booster integration. It owns the
// enable/disable lifecycle and hands out the three seams the session layer
// plugs in: command rewriting before spawn, classification after spawn, and
// the message codec on the read path.
//
// While disabled every seam is inert: RewriteCommand is the identity,
// Observe does nothing, and codecs stop consulting channel tags, so reads
// behave exactly as if the feature had never been enabled. Channels tagged
// during an earlier enabled period keep their tag but it is no longer read.
type Feature struct {
	opts   Options
	logger *log.Logger

	mu       sync.Mutex
	enabled  bool
	execPath string
}

// NewFeature builds a disabled feature. Call Activate to turn it on.
func NewFeature(opts Options, logger *log.Logger) *Feature {
	if logger == nil {
		logger = log.Default()
	}
	return &Feature{opts: opts, logger: logger}
}

// Activate resolves the booster executable and enables the feature. When the
// executable is not on PATH activation is refused and the feature stays
// disabled. Activating an enabled feature is a no-op.
func (f *Feature) Activate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enabled {
		return nil
	}
	path, err := exec.LookPath(f.opts.program())
	if err != nil {
		return fmt.Errorf("booster executable %q not found on PATH: %w", f.opts.program(), err)
	}
	f.execPath = path
	f.enabled = true
	f.logger.Printf("booster enabled (%s)", path)
	return nil
}

// Deactivate turns the feature off. Idempotent.
func (f *Feature) Deactivate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.enabled {
		return
	}
	f.enabled = false
	f.execPath = ""
	f.logger.Printf("booster disabled")
}

// Enabled reports the current toggle state.
func (f *Feature) Enabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

// ExecPath returns the resolved booster path, empty while disabled.
func (f *Feature) ExecPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.execPath
}

// Options returns the options the feature was built with.
func (f *Feature) Options() Options {
	return f.opts
}

// RewriteCommand is the spawn seam. It wraps command with the active profile
// using the resolved executable path, applying the same fail-open rules as
// Rewrite. Disabled features return command unchanged.
func (f *Feature) RewriteCommand(command []string, remote bool) []string {
	f.mu.Lock()
	enabled, path := f.enabled, f.execPath
	f.mu.Unlock()
	if !enabled || len(command) == 0 || command[0] == "" {
		return command
	}
	if f.opts.NoRemoteBoost && remote {
		return command
	}
	if f.opts.IOOnly {
		return IOOnlyProfile(path).Wrap(command)
	}
	return FullProfile(path, f.opts.falseToken()).Wrap(command)
}

// Profile names the invocation prefix the feature would apply.
func (f *Feature) Profile() Profile {
	if f.opts.IOOnly {
		return IOOnlyProfile(f.opts.program())
	}
	return FullProfile(f.opts.program(), f.opts.falseToken())
}

// Observe is the connection-created seam: it classifies the spawned argv
// onto ch. Must run after the process is started and before the first read.
func (f *Feature) Observe(argv []string, ch *Channel) {
	if !f.Enabled() {
		return
	}
	Classify(f.opts.program(), argv, ch, f.logger)
}

// Codec is the read seam. The returned codec consults the feature toggle on
// every read, so disabling the feature reverts live connections to plain
// JSON decoding without re-wiring their streams.
func (f *Feature) Codec(ch *Channel) jsonrpc2.ObjectCodec {
	return NewDualCodec(ch, f.opts.falseToken(), f.Enabled)
}
