package result

import (
	"sort"

	domdoc "github.com/tgassist/tgassist/internal/domain/document"
)

// Result is a single retrieval hit projected for answer composition.
type Result struct {
	id          domdoc.Field
	title       domdoc.Field
	docType     domdoc.Field
	contentText string
	similarity  float64
	ranked      bool
}

// FromScored projects a scored document: id <- metadata.file_id,
// title <- metadata.file_name, type <- metadata.type.
func FromScored(s domdoc.Scored) Result {
	md := s.Document.Metadata()
	return Result{
		id:          md.FileID,
		title:       md.FileName,
		docType:     md.Type,
		contentText: s.Document.Content(),
		similarity:  s.Similarity,
		ranked:      true,
	}
}

// Unranked projects a document returned without any similarity scoring.
// Its similarity is 0 and must not be read as a relevance score.
func Unranked(d domdoc.Document) Result {
	r := FromScored(domdoc.Scored{Document: d})
	r.ranked = false
	return r
}

// ID returns metadata.file_id (may be missing).
func (r *Result) ID() domdoc.Field { return r.id }

// Title returns metadata.file_name (may be missing).
func (r *Result) Title() domdoc.Field { return r.title }

// Type returns metadata.type (may be missing).
func (r *Result) Type() domdoc.Field { return r.docType }

// ContentText returns the document content.
func (r *Result) ContentText() string { return r.contentText }

// Similarity returns the score; 0 for unranked results.
func (r *Result) Similarity() float64 { return r.similarity }

// Ranked reports whether Similarity is a real score.
func (r *Result) Ranked() bool { return r.ranked }

// SortAndLimit orders results by similarity descending and keeps at most limit.
// The sort is stable: equal scores keep their input order.
func SortAndLimit(results []Result, limit int) []Result {
	if limit <= 0 {
		return []Result{}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].similarity > results[j].similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
