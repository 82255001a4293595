// Package jobkind defines the closed JobKind set, the JobRecord type, and
// the kind-specific payload structs carried by a JobRecord.
package jobkind

// Kind is the closed set of job kinds this pipeline accepts.
type Kind string

const (
	Merge        Kind = "merge"
	Split        Kind = "split"
	Compress     Kind = "compress"
	Protect      Kind = "protect"
	Unlock       Kind = "unlock"
	RemovePages  Kind = "remove-pages"
	Rotate       Kind = "rotate"
	Organize     Kind = "organize"
	Crop         Kind = "crop"
	ToWord       Kind = "to-word"
	ToExcel      Kind = "to-excel"
	ToPPT        Kind = "to-ppt"
	FromWord     Kind = "from-word"
	FromExcel    Kind = "from-excel"
	FromPPT      Kind = "from-ppt"
	FromHTML     Kind = "from-html"
	Repair       Kind = "repair"
	Watermark    Kind = "watermark"
	CVGenerate   Kind = "cv-generate"
)

// All lists every valid Kind, in the order spec.md §3 lists them.
var All = []Kind{
	Merge, Split, Compress, Protect, Unlock, RemovePages, Rotate, Organize,
	Crop, ToWord, ToExcel, ToPPT, FromWord, FromExcel, FromPPT, FromHTML,
	Repair, Watermark, CVGenerate,
}

// Valid reports whether k is one of the closed set of kinds.
func Valid(k Kind) bool {
	for _, v := range All {
		if v == k {
			return true
		}
	}
	return false
}
