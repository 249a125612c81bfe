package shader

import (
	"fmt"
	"io/fs"
	"maps"
	"path"
	"slices"
)

// PieceExt is the extension of library files scanned for piece definitions.
const PieceExt = ".wgsl"

// Library is a set of named pieces loaded from ordered folders. When two folders define
// a piece with the same name, the later folder wins.
type Library struct {
	pieces  map[string]string
	origins map[string]string
}

// NewLibrary creates an empty Library.
func NewLibrary() *Library {
	return &Library{
		pieces:  make(map[string]string),
		origins: make(map[string]string),
	}
}

// LoadLibrary reads every *.wgsl file of each folder, in folder order and then in
// lexical path order, and collects their piece definitions. Text outside pieces is ignored.
//
// Parameters:
//   - folders: the library folders, lowest precedence first
//
// Returns:
//   - *Library: the loaded pieces
//   - error: a read error or a malformed piece definition
func LoadLibrary(folders ...fs.FS) (*Library, error) {
	lib := NewLibrary()
	for i, folder := range folders {
		if err := lib.Load(folder, fmt.Sprintf("folder[%d]", i)); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

// Load adds the pieces of one folder, overriding existing pieces with the same name.
//
// Parameters:
//   - folder: the folder to scan
//   - label: a name for the folder used in errors and Origin
//
// Returns:
//   - error: a read error or a malformed piece definition
func (l *Library) Load(folder fs.FS, label string) error {
	var files []string
	err := fs.WalkDir(folder, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && path.Ext(p) == PieceExt {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("shader: scan library %s: %w", label, err)
	}
	slices.Sort(files)

	for _, f := range files {
		data, err := fs.ReadFile(folder, f)
		if err != nil {
			return fmt.Errorf("shader: read library %s/%s: %w", label, f, err)
		}
		_, pieces, err := extractPieces(string(data), label+"/"+f)
		if err != nil {
			return fmt.Errorf("shader: %w", err)
		}
		for name, body := range pieces {
			l.pieces[name] = body
			l.origins[name] = label + "/" + f
		}
	}
	return nil
}

// Define adds or replaces a single piece.
func (l *Library) Define(name, body string) {
	l.pieces[name] = body
	l.origins[name] = "defined"
}

// Piece returns the body of a named piece.
func (l *Library) Piece(name string) (string, bool) {
	body, ok := l.pieces[name]
	return body, ok
}

// Origin returns the folder and file a piece was last loaded from.
func (l *Library) Origin(name string) string {
	return l.origins[name]
}

// Names returns the piece names in sorted order.
func (l *Library) Names() []string {
	return slices.Sorted(maps.Keys(l.pieces))
}

// Len returns the number of pieces.
func (l *Library) Len() int {
	return len(l.pieces)
}
