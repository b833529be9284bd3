package contact

import (
	"context"
	"log/slog"

	"github.com/hitoshi/contactbook/internal/model"
)

type sample struct {
	first, last, avatar, twitter, notes string
	favorite                            bool
	age                                 int64 // 作成時刻を現在から何ミリ秒前にするか
}

var samples = []sample{
	{"John", "Doe", "https://i.pravatar.cc/150?img=1", "johndoe", "Sample contact 1", false, 1_000_000},
	{"Jane", "Smith", "https://i.pravatar.cc/150?img=2", "janesmith", "Sample contact 2", true, 2_000_000},
	{"Bob", "Johnson", "https://i.pravatar.cc/150?img=3", "bobjohnson", "Sample contact 3", false, 3_000_000},
}

// SeedSamples はコレクションが空の場合にサンプル連絡先を投入する。
// 投入した件数を返す。既にデータがある場合は何もしない。
func (s *Store) SeedSamples(ctx context.Context) (int, error) {
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	if len(records) > 0 {
		return 0, nil
	}

	now := s.now().UnixMilli()
	for _, smp := range samples {
		records = append(records, record{Contact: model.Contact{
			ID:        s.newID(),
			First:     smp.first,
			Last:      smp.last,
			Avatar:    smp.avatar,
			Twitter:   smp.twitter,
			Notes:     smp.notes,
			Favorite:  smp.favorite,
			CreatedAt: now - smp.age,
			CreatedBy: model.SystemActor,
		}})
	}

	if err := s.save(ctx, records); err != nil {
		return 0, err
	}

	slog.Info("sample contacts seeded", slog.Int("count", len(samples)))
	return len(samples), nil
}
