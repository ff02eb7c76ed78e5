// Package ops holds offline maintenance for persisted daily task saves.
package ops

import (
	"context"
	"fmt"
	"io"

	"dailyquests/internal/save"
	"dailyquests/internal/storage"
)

// Report summarizes one stored save.
type Report struct {
	Version   save.Version `json:"version"`
	Date      string       `json:"date"`
	Tasks     int          `json:"tasks"`
	Accepted  int          `json:"accepted"`
	Finished  int          `json:"finished"`
	Claimable int          `json:"claimable"`
}

func (r Report) String() string {
	return fmt.Sprintf("version=%s date=%s tasks=%d accepted=%d finished=%d claimable=%d",
		r.Version, r.Date, r.Tasks, r.Accepted, r.Finished, r.Claimable)
}

func report(v save.Version, st save.State) Report {
	r := Report{Version: v, Date: st.Date, Tasks: len(st.Tasks)}
	for i := range st.Tasks {
		t := &st.Tasks[i]
		if t.Accepted {
			r.Accepted++
		}
		if t.Finished {
			r.Finished++
			if !t.RewardClaimed {
				r.Claimable++
			}
		}
	}
	return r
}

func load(ctx context.Context, st storage.Store, ns, key string) (save.File, error) {
	blob, err := st.Load(ctx, ns, key)
	if err != nil {
		return save.File{}, err
	}
	return save.Decode(blob)
}

// Inspect reports the generation and contents of a stored save without changing it.
func Inspect(ctx context.Context, st storage.Store, ns, key string) (Report, error) {
	f, err := load(ctx, st, ns, key)
	if err != nil {
		return Report{}, err
	}
	return report(save.Detect(f), save.Migrate(f)), nil
}

// MigrateSave rewrites a stored save in the current format. The report
// carries the generation found before the rewrite.
func MigrateSave(ctx context.Context, st storage.Store, ns, key string) (Report, error) {
	f, err := load(ctx, st, ns, key)
	if err != nil {
		return Report{}, err
	}
	state := save.Migrate(f)
	blob, err := save.Encode(state)
	if err != nil {
		return Report{}, err
	}
	if err := st.Save(ctx, ns, key, blob); err != nil {
		return Report{}, fmt.Errorf("write migrated save: %w", err)
	}
	return report(save.Detect(f), state), nil
}

// Export copies the raw blob to w.
func Export(ctx context.Context, st storage.Store, ns, key string, w io.Writer) error {
	blob, err := st.Load(ctx, ns, key)
	if err != nil {
		return err
	}
	_, err = w.Write(blob)
	return err
}

// Import stores the blob read from r after checking it decodes.
func Import(ctx context.Context, st storage.Store, ns, key string, r io.Reader) error {
	blob, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if _, err := save.Decode(blob); err != nil {
		return err
	}
	return st.Save(ctx, ns, key, blob)
}

// Copy moves a blob between backends unchanged.
func Copy(ctx context.Context, src, dst storage.Store, ns, key string) error {
	blob, err := src.Load(ctx, ns, key)
	if err != nil {
		return err
	}
	return dst.Save(ctx, ns, key, blob)
}
