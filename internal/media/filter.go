package media

import "strings"

// RecordFilter narrows ListRecords queries. Nil fields match everything.
type RecordFilter struct {
	Category   *Category
	Status     *Status
	Tier       *Tier
	ShowName   *string
	PathPrefix *string
	Limit      int
	Offset     int
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
