package board

import (
	"os"
	"path/filepath"
)

// updateWorkspaceLinks mirrors a column move into the acting agent's
// workspace directory, where issues are exposed as
// workspaces/<agent>/<column>/<id>.yaml symlinks. Only boards that use
// per-agent workspaces have the directory; everything here is best-effort
// and a failure never affects the issue record itself.
func (c *Client) updateWorkspaceLinks(issueID, oldColumn, newColumn string) {
	wsRoot := filepath.Join(c.root, "workspaces", c.agentID)
	if _, err := os.Stat(wsRoot); err != nil {
		return
	}

	name := issueID + ".yaml"
	oldLink := filepath.Join(wsRoot, oldColumn, name)
	fi, err := os.Lstat(oldLink)
	if err != nil || fi.Mode()&os.ModeSymlink == 0 {
		return
	}

	// Point the relocated link at the issue's new record path rather than
	// resolving the old one, which may already be gone.
	target := c.issuePath(newColumn, issueID)
	newLink := filepath.Join(wsRoot, newColumn, name)
	if err := os.MkdirAll(filepath.Dir(newLink), 0o755); err != nil {
		c.opts.log.Warn("could not create workspace column directory", "path", filepath.Dir(newLink), "error", err.Error())
		return
	}
	if err := os.Remove(oldLink); err != nil {
		c.opts.log.Warn("could not remove old workspace link", "path", oldLink, "error", err.Error())
		return
	}
	if err := os.Symlink(target, newLink); err != nil {
		c.opts.log.Warn("could not create workspace link", "path", newLink, "error", err.Error())
	}
}
