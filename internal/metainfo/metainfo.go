// Package metainfo supports reading and writing torrent metainfo files.
package metainfo

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mistbt/mist/bencode"
	"github.com/mistbt/mist/internal/sha1hash"
)

// Errors returned while loading a metainfo file.
var (
	ErrInvalidTorrentFile = errors.New("invalid torrent file")
	ErrMissingInfoSection = errors.New("missing info section in torrent file")
	ErrMissingTrackers    = errors.New("no trackers in torrent file")
)

// File is one content file of a torrent. Path components are joined with "/"
// and do not include the torrent name directory.
type File struct {
	Path   string
	Length int64
}

// Info is the parsed info dictionary. Immutable after load.
type Info struct {
	Name        string
	PieceLength uint32
	Pieces      []sha1hash.Hash
	Private     *bool // nil when the key is absent
	Length      int64 // single-file mode
	Files       []File // multi-file mode
	TotalLength int64
	Hash        sha1hash.Hash // SHA-1 of the canonical encoding below
	Bytes       []byte        // canonical encoding of the info dictionary

	raw *bencode.Value
}

// MetaInfo is a parsed torrent file.
type MetaInfo struct {
	Info         Info
	Trackers     []string
	Comment      string
	CreatedBy    string
	CreationDate int64
	Encoding     string
}

// MultiFile reports whether the torrent has a files list.
func (i *Info) MultiFile() bool {
	return i.Files != nil
}

// GetFiles returns the files as a slice, even in single-file mode.
func (i *Info) GetFiles() []File {
	if i.MultiFile() {
		return i.Files
	}
	return []File{{Path: i.Name, Length: i.Length}}
}

// NumPieces returns the piece count.
func (i *Info) NumPieces() uint32 {
	return uint32(len(i.Pieces))
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidTorrentFile, fmt.Sprintf(format, args...))
}

// Load parses a metainfo file from b.
func Load(b []byte) (*MetaInfo, error) {
	root, err := bencode.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTorrentFile, err)
	}
	if root.Kind() != bencode.Dict {
		return nil, invalid("root element is not a dictionary")
	}

	var m MetaInfo
	m.Trackers = parseTrackers(root)
	if len(m.Trackers) == 0 {
		return nil, ErrMissingTrackers
	}

	infoValue := root.Get("info")
	if infoValue == nil {
		return nil, ErrMissingInfoSection
	}
	if infoValue.Kind() != bencode.Dict {
		return nil, invalid("info section is not a dictionary")
	}
	if err := parseInfo(&m.Info, infoValue); err != nil {
		return nil, err
	}

	if v := root.Get("comment"); v != nil && v.Kind() == bencode.String {
		m.Comment = v.String()
	}
	if v := root.Get("created by"); v != nil && v.Kind() == bencode.String {
		m.CreatedBy = v.String()
	}
	if v := root.Get("creation date"); v != nil && v.Kind() == bencode.Integer {
		m.CreationDate = v.Int64()
	}
	if v := root.Get("encoding"); v != nil && v.Kind() == bencode.String {
		m.Encoding = v.String()
	}
	return &m, nil
}

// LoadFile parses the metainfo file at path.
func LoadFile(path string) (*MetaInfo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(b)
}

func parseTrackers(root *bencode.Value) []string {
	var trackers []string
	if v := root.Get("announce-list"); v != nil && v.Kind() == bencode.List {
		for _, item := range v.List() {
			switch item.Kind() {
			case bencode.String:
				trackers = append(trackers, item.String())
			case bencode.List:
				// Tiered form, flatten.
				for _, t := range item.List() {
					if t.Kind() == bencode.String {
						trackers = append(trackers, t.String())
					}
				}
			}
		}
	}
	if len(trackers) == 0 {
		if v := root.Get("announce"); v != nil && v.Kind() == bencode.String {
			trackers = append(trackers, v.String())
		}
	}
	return trackers
}

func parseInfo(i *Info, v *bencode.Value) error {
	name := v.Get("name")
	if name == nil || name.Kind() != bencode.String || len(name.StringBytes()) == 0 {
		return invalid("missing name")
	}
	i.Name = name.String()

	pieceLength := v.Get("piece length")
	if pieceLength == nil || pieceLength.Kind() != bencode.Integer {
		return invalid("missing piece length")
	}
	if pieceLength.Int64() <= 0 || pieceLength.Int64() > 1<<31 {
		return invalid("bad piece length %d", pieceLength.Int64())
	}
	i.PieceLength = uint32(pieceLength.Int64())

	pieces := v.Get("pieces")
	if pieces == nil || pieces.Kind() != bencode.String {
		return invalid("missing pieces")
	}
	raw := pieces.StringBytes()
	if len(raw) == 0 || len(raw)%sha1hash.Size != 0 {
		return invalid("pieces length %d is not a multiple of %d", len(raw), sha1hash.Size)
	}
	i.Pieces = make([]sha1hash.Hash, len(raw)/sha1hash.Size)
	for n := range i.Pieces {
		copy(i.Pieces[n][:], raw[n*sha1hash.Size:])
	}

	if p := v.Get("private"); p != nil {
		var val bool
		switch p.Kind() {
		case bencode.Integer:
			val = p.Int64() != 0
		case bencode.String:
			val = p.String() == "1"
		}
		i.Private = &val
	}

	length := v.Get("length")
	files := v.Get("files")
	switch {
	case length != nil && files != nil:
		return invalid("both length and files present")
	case length != nil:
		if length.Kind() != bencode.Integer || length.Int64() < 0 {
			return invalid("bad length")
		}
		i.Length = length.Int64()
		i.TotalLength = i.Length
	case files != nil:
		if files.Kind() != bencode.List {
			return invalid("files is not a list")
		}
		if err := parseFiles(i, files); err != nil {
			return err
		}
	default:
		return invalid("no files specified (missing length or files)")
	}

	// The hash grid must cover the content exactly.
	delta := int64(i.NumPieces())*int64(i.PieceLength) - i.TotalLength
	if delta < 0 || delta >= int64(i.PieceLength) {
		return invalid("piece count %d does not match total length %d", i.NumPieces(), i.TotalLength)
	}

	i.raw = v
	i.Bytes = bencode.Encode(v)
	d := sha1hash.New()
	_ = bencode.EncodeTo(d, v)
	i.Hash = d.Sum()
	return nil
}

func parseFiles(i *Info, files *bencode.Value) error {
	list := files.List()
	if len(list) == 0 {
		return invalid("empty files list")
	}
	i.Files = make([]File, 0, len(list))
	for _, item := range list {
		if item.Kind() != bencode.Dict {
			return invalid("file entry is not a dictionary")
		}
		length := item.Get("length")
		path := item.Get("path")
		if length == nil || length.Kind() != bencode.Integer || length.Int64() < 0 {
			return invalid("file entry missing length")
		}
		if path == nil || path.Kind() != bencode.List || len(path.List()) == 0 {
			return invalid("file entry missing path")
		}
		components := make([]string, 0, len(path.List()))
		for _, c := range path.List() {
			if c.Kind() != bencode.String {
				return invalid("file path component is not a string")
			}
			s := c.String()
			if s == "" || strings.TrimSpace(s) == ".." {
				return invalid("invalid file name: %q", s)
			}
			components = append(components, s)
		}
		i.Files = append(i.Files, File{
			Path:   strings.Join(components, "/"),
			Length: length.Int64(),
		})
		i.TotalLength += length.Int64()
	}
	return nil
}
