// Package knownhosts consolidates known_hosts files so every ssh attempt
// checks host keys against the same file.
package knownhosts

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rileyhilliard/sshmenu/internal/errors"
	"github.com/rileyhilliard/sshmenu/internal/logger"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"
	xknownhosts "golang.org/x/crypto/ssh/knownhosts"
)

// minFields is the field count of a usable entry: hosts, key type, key.
const minFields = 3

// Store reads and writes known_hosts files.
type Store struct {
	fs  afero.Fs
	log logger.Logger
}

// NewStore returns a Store over fs. A nil fs means the OS filesystem.
func NewStore(fs afero.Fs, log logger.Logger) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = logger.Noop()
	}
	return &Store{fs: fs, log: log}
}

// MergeStats reports what Merge did.
type MergeStats struct {
	Read       int `json:"read"` // usable lines read from both files
	Written    int `json:"written"`
	Duplicates int `json:"duplicates"`
}

// Merge combines primary and fallback into primary. Comments and lines
// with fewer than three fields are dropped, and lines are deduplicated on
// their first two fields (host pattern and key type) keeping the first
// seen, primary before fallback. Missing files are treated as empty. When neither file
// has content an empty primary is created along with its directory.
// Merging a file with itself changes nothing.
func (s *Store) Merge(primary, fallback string) (MergeStats, error) {
	var stats MergeStats
	seen := make(map[[2]string]bool)
	var out bytes.Buffer

	for _, path := range []string{primary, fallback} {
		if path == "" {
			continue
		}
		lines, err := s.readLines(path)
		if err != nil {
			return stats, err
		}
		for _, line := range lines {
			fields := strings.Fields(line)
			if len(fields) < minFields || strings.HasPrefix(fields[0], "#") {
				continue
			}
			stats.Read++
			key := [2]string{fields[0], fields[1]}
			if seen[key] {
				stats.Duplicates++
				continue
			}
			seen[key] = true
			out.WriteString(line)
			out.WriteByte('\n')
			stats.Written++
		}
	}

	if err := s.fs.MkdirAll(filepath.Dir(primary), 0o700); err != nil {
		return stats, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Couldn't create %s", filepath.Dir(primary)),
			"Check permissions on the SSH directory.")
	}
	if err := afero.WriteFile(s.fs, primary, out.Bytes(), 0o600); err != nil {
		return stats, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Couldn't write %s", primary),
			"Check permissions on the known_hosts file.")
	}

	s.log.Debug("merged known_hosts into %s: %d written, %d duplicate(s) dropped", primary, stats.Written, stats.Duplicates)
	return stats, nil
}

func (s *Store) readLines(path string) ([]string, error) {
	data, err := afero.ReadFile(s.fs, path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Couldn't read %s", path),
			"Check permissions on the known_hosts file.")
	}

	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Couldn't read %s", path), "")
	}
	return lines, nil
}

// Entry is one parsed known_hosts line.
type Entry struct {
	Marker      string   `json:"marker,omitempty"` // @cert-authority, @revoked or empty
	Hosts       []string `json:"hosts"`
	KeyType     string   `json:"key_type"`
	Fingerprint string   `json:"fingerprint"`
	Hashed      bool     `json:"hashed"`
}

// Entries parses path. Lines ssh can't parse are skipped.
func (s *Store) Entries(path string) ([]Entry, error) {
	data, err := afero.ReadFile(s.fs, path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Couldn't read %s", path), "")
	}

	var entries []Entry
	rest := data
	for len(rest) > 0 {
		marker, hosts, key, _, next, err := ssh.ParseKnownHosts(rest)
		if err != nil {
			// ParseKnownHosts stops at the first bad line; skip it and carry on.
			i := bytes.IndexByte(rest, '\n')
			if i < 0 {
				break
			}
			s.log.Debug("skipping unparseable known_hosts line in %s: %v", path, err)
			rest = rest[i+1:]
			continue
		}
		rest = next
		e := Entry{
			Marker:      marker,
			Hosts:       hosts,
			KeyType:     key.Type(),
			Fingerprint: ssh.FingerprintSHA256(key),
		}
		for _, h := range hosts {
			if strings.HasPrefix(h, "|1|") {
				e.Hashed = true
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Known reports whether path has a plain-text entry for host on port.
// Hashed entries can't be matched without the key and are not counted.
func (s *Store) Known(path, host string, port int) (bool, error) {
	entries, err := s.Entries(path)
	if err != nil {
		return false, err
	}
	want := xknownhosts.Normalize(net.JoinHostPort(host, strconv.Itoa(port)))
	for _, e := range entries {
		if e.Marker == "@revoked" {
			continue
		}
		for _, h := range e.Hosts {
			if xknownhosts.Normalize(h) == want {
				return true, nil
			}
		}
	}
	return false, nil
}
