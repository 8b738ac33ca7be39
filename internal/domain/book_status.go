package domain

type BookStatus string

const (
	BookStatusDraft     BookStatus = "draft"
	BookStatusPublished BookStatus = "published"
	BookStatusRetired   BookStatus = "retired"
)

func (s BookStatus) Valid() bool {
	switch s {
	case BookStatusDraft, BookStatusPublished, BookStatusRetired:
		return true
	}
	return false
}
