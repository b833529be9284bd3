package contact

import (
	"encoding/json"

	"github.com/hitoshi/contactbook/internal/model"
)

// contactKeys はmodel.ContactのJSONキー。
var contactKeys = []string{
	"id", "first", "last", "avatar", "twitter", "address", "notes",
	"favorite", "createdAt", "createdBy",
}

// record は永続化された1件分の連絡先。
// model.Contactに含まれないキーはextraに保持し、書き戻し時にそのまま出力する。
type record struct {
	model.Contact
	extra map[string]json.RawMessage
}

// UnmarshalJSON はjson.Unmarshalerを実装する。
func (r *record) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, &r.Contact); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for _, k := range contactKeys {
		delete(fields, k)
	}
	if len(fields) > 0 {
		r.extra = fields
	}
	return nil
}

// MarshalJSON はjson.Marshalerを実装する。
func (r record) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(r.Contact)
	if err != nil || len(r.extra) == 0 {
		return base, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for k, v := range r.extra {
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}
	return json.Marshal(fields)
}

func contactsOf(records []record) []model.Contact {
	contacts := make([]model.Contact, len(records))
	for i := range records {
		contacts[i] = records[i].Contact
	}
	return contacts
}
