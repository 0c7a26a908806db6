package content

import (
	"bytes"
	"io"
	"sort"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/mwantia/typedfs/data"
)

// ZipEntry is one member of a ZipFile.
type ZipEntry struct {
	Name     string
	Modified time.Time
	Data     []byte
}

// IsDir reports whether the member is a directory marker.
func (e *ZipEntry) IsDir() bool {
	return len(e.Name) > 0 && e.Name[len(e.Name)-1] == '/'
}

// ZipFile is a fully loaded zip archive.
type ZipFile struct {
	Entries []*ZipEntry
}

// Add appends a member, replacing any member of the same name.
func (z *ZipFile) Add(name string, modified time.Time, content []byte) {
	for _, e := range z.Entries {
		if e.Name == name {
			e.Modified = modified
			e.Data = content
			return
		}
	}
	z.Entries = append(z.Entries, &ZipEntry{Name: name, Modified: modified, Data: content})
}

// Lookup returns the member called name.
func (z *ZipFile) Lookup(name string) (*ZipEntry, bool) {
	for _, e := range z.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// ReadZip loads every member of the archive held in raw.
func ReadZip(raw []byte) (*ZipFile, error) {
	reader, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, err
	}

	z := &ZipFile{Entries: make([]*ZipEntry, 0, len(reader.File))}
	for _, f := range reader.File {
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}

		z.Entries = append(z.Entries, &ZipEntry{
			Name:     f.Name,
			Modified: f.Modified,
			Data:     content,
		})
	}

	return z, nil
}

// WriteTo serializes the archive with members sorted by name.
func (z *ZipFile) WriteTo(w io.Writer) (int64, error) {
	entries := append([]*ZipEntry(nil), z.Entries...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	counter := &countingWriter{w: w}
	writer := zip.NewWriter(counter)
	for _, e := range entries {
		header := &zip.FileHeader{
			Name:     e.Name,
			Method:   zip.Deflate,
			Modified: e.Modified,
		}
		if e.IsDir() {
			header.Method = zip.Store
		}

		fw, err := writer.CreateHeader(header)
		if err != nil {
			return counter.n, err
		}
		if _, err := fw.Write(e.Data); err != nil {
			return counter.n, err
		}
	}

	err := writer.Close()
	return counter.n, err
}

// Archive is the content type of zip archives such as packaged
// dependencies.
var Archive = NewType("zip",
	func(id data.ID, r io.Reader) (*ZipFile, error) {
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return ReadZip(raw)
	},
	func(w io.Writer, value *ZipFile) error {
		_, err := value.WriteTo(w)
		return err
	},
)

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
