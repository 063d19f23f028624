package booster

import "strings"

// remoteSchemes cover workspace paths that address another host. The booster
// runs next to the client process, so wrapping a server command destined for
// a remote machine would start the booster on the wrong side of the link.
var remoteSchemes = []string{"ssh://", "scp://", "sftp://", "docker://", "vagrant://"}

// IsRemoteDir reports whether dir addresses a remote workspace.
func IsRemoteDir(dir string) bool {
	for _, scheme := range remoteSchemes {
		if strings.HasPrefix(dir, scheme) {
			return true
		}
	}
	// user@host:path specs as used by scp-style tooling.
	if at := strings.IndexByte(dir, '@'); at > 0 {
		rest := dir[at+1:]
		if colon := strings.IndexByte(rest, ':'); colon > 0 && !strings.Contains(rest[:colon], "/") {
			return true
		}
	}
	return false
}
