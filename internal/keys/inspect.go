package keys

import (
	"io"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"
)

// maxPublicKeySize bounds how much of a .pub file is read.
const maxPublicKeySize = 16 * 1024

// KeyInfo describes a candidate key for display. Only the public half
// (<path>.pub) is parsed; the private file is never decoded.
type KeyInfo struct {
	Path        string
	Size        int64
	Type        string // e.g. ssh-ed25519, empty when no .pub exists
	Fingerprint string // SHA256 fingerprint of the public key
	Comment     string
	HasPublic   bool
}

// Describe returns display information for the key at path.
func (l *Locator) Describe(path string) KeyInfo {
	info := KeyInfo{Path: path}
	if st, err := l.fs.Stat(path); err == nil {
		info.Size = st.Size()
	}

	pub, err := l.readPublic(path + ".pub")
	if err != nil {
		l.log.Debug("no public key for %s: %v", path, err)
		return info
	}

	key, comment, _, _, err := ssh.ParseAuthorizedKey(pub)
	if err != nil {
		l.log.Debug("unparseable public key %s.pub: %v", path, err)
		return info
	}

	info.HasPublic = true
	info.Type = key.Type()
	info.Fingerprint = ssh.FingerprintSHA256(key)
	info.Comment = strings.TrimSpace(comment)
	return info
}

func (l *Locator) readPublic(path string) ([]byte, error) {
	f, err := l.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return afero.ReadAll(io.LimitReader(f, maxPublicKeySize))
}
