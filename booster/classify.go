package booster

import (
	"log"
	"strings"
)

// Classify inspects the argv a server process was actually started with and
// tags ch when the booster sits in front of it. The spawned command line is
// used rather than the requested one: another layer may rewrite commands too,
// and only the spawned form is authoritative. Matching is substring
// containment because the spawner may have resolved program to an absolute
// path.
//
// Classification is best-effort and runs once, right after the process is
// started and before the first read. Missing inputs skip silently and the
// connection proceeds unboosted.
func Classify(program string, argv []string, ch *Channel, logger *log.Logger) {
	if ch == nil || len(argv) == 0 || program == "" {
		return
	}
	for _, tok := range argv {
		if strings.Contains(tok, program) {
			ch.markBoosted()
			if logger != nil {
				logger.Printf("boosted channel: %s fronts %q", program, argv)
			}
			return
		}
	}
}
