//go:build !windows

package install

// EnsurePathEntry never edits PATH on unix-like systems; shell profiles are
// the user's own. The install dir default is normally on PATH already.
func (i *Installer) EnsurePathEntry() error {
	return ErrPathEditUnsupported
}
