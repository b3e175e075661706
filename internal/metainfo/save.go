package metainfo

import (
	"strings"

	"github.com/mistbt/mist/bencode"
	"github.com/mistbt/mist/internal/sha1hash"
)

// ComputeHash builds the canonical info dictionary from the fields of i and
// fills Bytes and Hash. Called when synthesizing a torrent; loaded torrents
// keep the dictionary they were parsed from so unknown keys survive a
// save/load cycle.
func (i *Info) ComputeHash() {
	i.raw = i.value()
	i.Bytes = bencode.Encode(i.raw)
	d := sha1hash.New()
	_ = bencode.EncodeTo(d, i.raw)
	i.Hash = d.Sum()
}

func (i *Info) value() *bencode.Value {
	if i.raw != nil {
		return i.raw
	}
	v := bencode.NewDict()
	v.Set("name", bencode.NewString(i.Name))
	v.Set("piece length", bencode.NewInteger(int64(i.PieceLength)))

	pieces := make([]byte, 0, len(i.Pieces)*sha1hash.Size)
	for _, h := range i.Pieces {
		pieces = append(pieces, h[:]...)
	}
	v.Set("pieces", bencode.NewBytes(pieces))

	// Absent and present-false are different dictionaries with different
	// info hashes, preserve the distinction.
	if i.Private != nil {
		var n int64
		if *i.Private {
			n = 1
		}
		v.Set("private", bencode.NewInteger(n))
	}

	if i.MultiFile() {
		files := bencode.NewList()
		for _, f := range i.Files {
			fd := bencode.NewDict()
			fd.Set("length", bencode.NewInteger(f.Length))
			path := bencode.NewList()
			for _, c := range strings.Split(f.Path, "/") {
				path.Append(bencode.NewString(c))
			}
			fd.Set("path", path)
			files.Append(fd)
		}
		v.Set("files", files)
	} else {
		v.Set("length", bencode.NewInteger(i.Length))
	}
	return v
}

// Value builds the full metainfo dictionary.
func (m *MetaInfo) Value() *bencode.Value {
	v := bencode.NewDict()
	if len(m.Trackers) > 0 {
		v.Set("announce", bencode.NewString(m.Trackers[0]))
	}
	if len(m.Trackers) > 1 {
		list := bencode.NewList()
		for _, t := range m.Trackers {
			list.Append(bencode.NewString(t))
		}
		v.Set("announce-list", list)
	}
	if m.Comment != "" {
		v.Set("comment", bencode.NewString(m.Comment))
	}
	if m.CreatedBy != "" {
		v.Set("created by", bencode.NewString(m.CreatedBy))
	}
	if m.CreationDate != 0 {
		v.Set("creation date", bencode.NewInteger(m.CreationDate))
	}
	if m.Encoding != "" {
		v.Set("encoding", bencode.NewString(m.Encoding))
	}
	v.Set("info", m.Info.value())
	return v
}

// Bytes returns the canonical encoding of the metainfo file.
func (m *MetaInfo) Bytes() []byte {
	return bencode.Encode(m.Value())
}

// WriteFile writes the metainfo file to path.
func (m *MetaInfo) WriteFile(path string) error {
	return bencode.EncodeFile(m.Value(), path)
}
