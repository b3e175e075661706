package bencode

import (
	"io"
	"strconv"
)

// EncodeTo writes the canonical encoding of v to w without materializing the
// whole encoding. Used to stream the info dictionary into a hash digest.
func EncodeTo(w io.Writer, v *Value) error {
	switch v.kind {
	case String:
		if _, err := io.WriteString(w, strconv.Itoa(len(v.str))); err != nil {
			return err
		}
		if _, err := w.Write([]byte{':'}); err != nil {
			return err
		}
		_, err := w.Write(v.str)
		return err
	case Integer:
		if _, err := w.Write([]byte{'i'}); err != nil {
			return err
		}
		if _, err := io.WriteString(w, strconv.FormatInt(v.num, 10)); err != nil {
			return err
		}
		_, err := w.Write([]byte{'e'})
		return err
	case List:
		if _, err := w.Write([]byte{'l'}); err != nil {
			return err
		}
		for _, item := range v.list {
			if err := EncodeTo(w, item); err != nil {
				return err
			}
		}
		_, err := w.Write([]byte{'e'})
		return err
	case Dict:
		if _, err := w.Write([]byte{'d'}); err != nil {
			return err
		}
		for _, item := range v.dict {
			if err := EncodeTo(w, NewString(item.Key)); err != nil {
				return err
			}
			if err := EncodeTo(w, item.Value); err != nil {
				return err
			}
		}
		_, err := w.Write([]byte{'e'})
		return err
	}
	return nil
}

func (v *Value) append(b []byte) []byte {
	switch v.kind {
	case String:
		b = strconv.AppendInt(b, int64(len(v.str)), 10)
		b = append(b, ':')
		b = append(b, v.str...)
	case Integer:
		b = append(b, 'i')
		b = strconv.AppendInt(b, v.num, 10)
		b = append(b, 'e')
	case List:
		b = append(b, 'l')
		for _, item := range v.list {
			b = item.append(b)
		}
		b = append(b, 'e')
	case Dict:
		b = append(b, 'd')
		for _, item := range v.dict {
			b = NewString(item.Key).append(b)
			b = item.Value.append(b)
		}
		b = append(b, 'e')
	}
	return b
}

func (v *Value) encodedLen() int {
	switch v.kind {
	case String:
		return len(strconv.Itoa(len(v.str))) + 1 + len(v.str)
	case Integer:
		return len(strconv.FormatInt(v.num, 10)) + 2
	case List:
		n := 2
		for _, item := range v.list {
			n += item.encodedLen()
		}
		return n
	case Dict:
		n := 2
		for _, item := range v.dict {
			n += NewString(item.Key).encodedLen() + item.Value.encodedLen()
		}
		return n
	}
	return 0
}
