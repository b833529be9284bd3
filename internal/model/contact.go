// Package model はドメインモデルを定義する。
package model

// SystemActor は作成者が不明な連絡先に設定するcreatedByの値。
const SystemActor = "system"

// Contact は連絡先レコードを表す。
// JSONのキーはフロントエンドとの契約、および永続化形式と一致する。
type Contact struct {
	ID        string `json:"id"`
	First     string `json:"first"`
	Last      string `json:"last"`
	Avatar    string `json:"avatar"`
	Twitter   string `json:"twitter"` // 先頭の@は含まない
	Address   string `json:"address"`
	Notes     string `json:"notes"`
	Favorite  bool   `json:"favorite"`
	CreatedAt int64  `json:"createdAt"` // エポックミリ秒。作成後は不変
	CreatedBy string `json:"createdBy"`
}

// ContactPatch は連絡先の部分更新を表す。
// nilのフィールドは未指定（変更しない）、非nilのフィールドのみ上書きする。
// id、createdAt、createdByはパッチ対象外。
type ContactPatch struct {
	First    *string `json:"first,omitempty"`
	Last     *string `json:"last,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	Twitter  *string `json:"twitter,omitempty"`
	Address  *string `json:"address,omitempty"`
	Notes    *string `json:"notes,omitempty"`
	Favorite *bool   `json:"favorite,omitempty"`
}

// IsEmpty は指定されたフィールドが1つもないかを返す。
func (p ContactPatch) IsEmpty() bool {
	return p.First == nil && p.Last == nil && p.Avatar == nil && p.Twitter == nil &&
		p.Address == nil && p.Notes == nil && p.Favorite == nil
}

// ApplyTo は指定されたフィールドのみをcに上書きする。
func (p ContactPatch) ApplyTo(c *Contact) {
	if p.First != nil {
		c.First = *p.First
	}
	if p.Last != nil {
		c.Last = *p.Last
	}
	if p.Avatar != nil {
		c.Avatar = *p.Avatar
	}
	if p.Twitter != nil {
		c.Twitter = *p.Twitter
	}
	if p.Address != nil {
		c.Address = *p.Address
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
	if p.Favorite != nil {
		c.Favorite = *p.Favorite
	}
}
