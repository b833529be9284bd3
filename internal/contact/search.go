package contact

import (
	"sort"
	"strings"

	"github.com/hitoshi/contactbook/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// filterByName はfirstまたはlastにクエリを含む連絡先を返す。
// 比較はUnicodeのケースフォールディング後に行う。
func filterByName(contacts []model.Contact, query string) []model.Contact {
	fold := cases.Fold()
	q := fold.String(strings.TrimSpace(query))
	if q == "" {
		return contacts
	}

	matched := make([]model.Contact, 0, len(contacts))
	for _, c := range contacts {
		if strings.Contains(fold.String(c.First), q) || strings.Contains(fold.String(c.Last), q) {
			matched = append(matched, c)
		}
	}
	return matched
}

// sortByLastName はlastの昇順（大文字小文字を区別しない照合順）、
// 同じ場合はcreatedAtの昇順に並べ替える。
func sortByLastName(contacts []model.Contact) {
	// Collatorはgoroutine間で共有できないため呼び出しごとに生成する
	col := collate.New(language.Und, collate.IgnoreCase)

	sort.SliceStable(contacts, func(i, j int) bool {
		if c := col.CompareString(contacts[i].Last, contacts[j].Last); c != 0 {
			return c < 0
		}
		return contacts[i].CreatedAt < contacts[j].CreatedAt
	})
}
