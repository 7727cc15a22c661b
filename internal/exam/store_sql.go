package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// SQLStore persists the engine's records via database/sql. Placeholders use
// the $N form, which both the pgx stdlib driver and modernc sqlite accept.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutClassConfig(ctx context.Context, cfg ClassExamConfig) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO class_exam_configs (class_id, version, updated_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (class_id) DO UPDATE SET version=class_exam_configs.version+1, updated_at=EXCLUDED.updated_at`,
		cfg.ClassID, time.Now().Unix())
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM class_partial_configs WHERE class_id=$1`, cfg.ClassID); err != nil {
		return err
	}
	for _, t := range PartialTypes {
		pc := cfg.Partials[t]
		cj, err := json.Marshal(pc.Checklist)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO class_partial_configs
			(class_id, partial_type, weight, duration_min, content_ref, checklist_json, window_start, window_end)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			cfg.ClassID, string(t), pc.Weight, pc.DurationMin, pc.ContentRef, string(cj),
			unixPtr(pc.WindowStart), unixPtr(pc.WindowEnd))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetClassConfig(ctx context.Context, classID string) (ClassExamConfig, error) {
	cfg := ClassExamConfig{ClassID: classID, Partials: map[PartialType]PartialConfig{}}
	err := s.db.QueryRowContext(ctx,
		`SELECT version FROM class_exam_configs WHERE class_id=$1`, classID).Scan(&cfg.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ClassExamConfig{}, ErrClassNotConfigured
		}
		return ClassExamConfig{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT partial_type, weight, duration_min, content_ref,
		checklist_json, window_start, window_end
		FROM class_partial_configs WHERE class_id=$1`, classID)
	if err != nil {
		return ClassExamConfig{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var pc PartialConfig
		var typ, cj string
		var ws, we sql.NullInt64
		if err := rows.Scan(&typ, &pc.Weight, &pc.DurationMin, &pc.ContentRef, &cj, &ws, &we); err != nil {
			return ClassExamConfig{}, err
		}
		pc.Type = PartialType(typ)
		if cj != "" {
			if err := json.Unmarshal([]byte(cj), &pc.Checklist); err != nil {
				return ClassExamConfig{}, err
			}
		}
		pc.WindowStart = timePtr(ws)
		pc.WindowEnd = timePtr(we)
		cfg.Partials[pc.Type] = pc
	}
	if err := rows.Err(); err != nil {
		return ClassExamConfig{}, err
	}
	if len(cfg.Partials) != len(PartialTypes) {
		return ClassExamConfig{}, ErrClassNotConfigured
	}
	return cfg, nil
}

func (s *SQLStore) CreateFinalExam(ctx context.Context, e FinalExam) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO final_exams
		(id, class_id, enrollment_id, exam_code, status, total_marks, is_pass, created_at)
		VALUES ($1,$2,$3,$4,$5,0,0,$6)`,
		e.ID, e.ClassID, e.EnrollmentID, e.ExamCode, string(e.Status), time.Now().Unix())
	return err
}

func (s *SQLStore) GetFinalExam(ctx context.Context, id string) (FinalExam, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, class_id, enrollment_id, exam_code, status,
		total_marks, is_pass, complete_time FROM final_exams WHERE id=$1`, id)
	e, err := scanExam(row)
	if err != nil {
		return FinalExam{}, err
	}
	e.Partials, err = s.partialsForExam(ctx, id)
	if err != nil {
		return FinalExam{}, err
	}
	return e, nil
}

func (s *SQLStore) ListFinalExams(ctx context.Context, classID string) ([]FinalExam, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, class_id, enrollment_id, exam_code, status,
		total_marks, is_pass, complete_time FROM final_exams WHERE class_id=$1 ORDER BY id`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []FinalExam{}
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Partials, err = s.partialsForExam(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLStore) DeleteFinalExam(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM final_exams WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExamNotFound
	}
	return nil
}

func (s *SQLStore) EnsurePartial(ctx context.Context, snap Partial) (Partial, error) {
	ij, err := json.Marshal(snap.Items)
	if err != nil {
		return Partial{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO partials
		(id, exam_id, partial_type, status, config_version, weight, content_ref, duration_min,
		 checklist_items_json, window_start, window_end, raw_score, max_score, normalized_score)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,0,0,0)
		ON CONFLICT (exam_id, partial_type) DO NOTHING`,
		snap.ID, snap.ExamID, string(snap.Type), string(snap.Status), snap.ConfigVersion,
		snap.Weight, snap.ContentRef, snap.DurationMin, string(ij),
		unixPtr(snap.WindowStart), unixPtr(snap.WindowEnd))
	if err != nil {
		return Partial{}, err
	}
	return s.getPartialBy(ctx, `exam_id=$1 AND partial_type=$2`, snap.ExamID, string(snap.Type))
}

func (s *SQLStore) GetPartial(ctx context.Context, id string) (Partial, error) {
	return s.getPartialBy(ctx, `id=$1`, id)
}

func (s *SQLStore) AssignWindow(ctx context.Context, partialID string, start, end *time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE partials SET window_start=$1, window_end=$2 WHERE id=$3 AND status=$4`,
		unixPtr(start), unixPtr(end), partialID, string(StatusNotYet))
	return err
}

func (s *SQLStore) CasStart(ctx context.Context, partialID string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE partials SET status=$1, actual_start_time=$2 WHERE id=$3 AND status=$4`,
		string(StatusInProgress), at.Unix(), partialID, string(StatusNotYet))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (s *SQLStore) CasSubmitAuto(ctx context.Context, partialID string, raw, max, normalized float64, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE partials SET status=$1, raw_score=$2, max_score=$3, normalized_score=$4, submitted_at=$5
		 WHERE id=$6 AND status=$7`,
		string(StatusCompleted), raw, max, normalized, at.Unix(), partialID, string(StatusInProgress))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (s *SQLStore) CasSubmitPractical(ctx context.Context, partialID string, results []ChecklistResult, normalized float64, at time.Time) (bool, error) {
	return s.casPracticalTx(ctx, partialID, StatusSubmitted, StatusInProgress, results, normalized, &at)
}

func (s *SQLStore) CasDecidePractical(ctx context.Context, partialID string, decision PartialStatus, results []ChecklistResult, normalized float64) (bool, error) {
	return s.casPracticalTx(ctx, partialID, decision, StatusSubmitted, results, normalized, nil)
}

func (s *SQLStore) casPracticalTx(ctx context.Context, partialID string, next, guard PartialStatus, results []ChecklistResult, normalized float64, submittedAt *time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var res sql.Result
	if submittedAt != nil {
		res, err = tx.ExecContext(ctx,
			`UPDATE partials SET status=$1, normalized_score=$2, submitted_at=$3 WHERE id=$4 AND status=$5`,
			string(next), normalized, submittedAt.Unix(), partialID, string(guard))
	} else {
		res, err = tx.ExecContext(ctx,
			`UPDATE partials SET status=$1, normalized_score=$2 WHERE id=$3 AND status=$4`,
			string(next), normalized, partialID, string(guard))
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM checklist_results WHERE partial_id=$1`, partialID); err != nil {
		return false, err
	}
	for i, r := range results {
		passed := 0
		if r.Passed {
			passed = 1
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO checklist_results
			(partial_id, seq, name, description, passed) VALUES ($1,$2,$3,$4,$5)`,
			partialID, i, r.Name, r.Description, passed)
		if err != nil {
			return false, err
		}
	}
	return true, tx.Commit()
}

func (s *SQLStore) OverrideStatus(ctx context.Context, partialID string, status PartialStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE partials SET status=$1 WHERE id=$2`,
		string(status), partialID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPartialNotFound
	}
	return nil
}

func (s *SQLStore) SaveAggregate(ctx context.Context, examID string, agg Aggregate) error {
	isPass := 0
	if agg.IsPass {
		isPass = 1
	}
	var err error
	if agg.Status == ExamCompleted {
		// keep the first completion time on idempotent recompute
		_, err = s.db.ExecContext(ctx, `UPDATE final_exams
			SET total_marks=$1, is_pass=$2, status=$3,
			    complete_time=COALESCE(complete_time, $4)
			WHERE id=$5`,
			agg.TotalMarks, isPass, string(agg.Status), unixPtr(agg.CompleteTime), examID)
	} else {
		_, err = s.db.ExecContext(ctx, `UPDATE final_exams
			SET total_marks=$1, is_pass=$2, status=$3, complete_time=NULL
			WHERE id=$4`,
			agg.TotalMarks, isPass, string(agg.Status), examID)
	}
	return err
}

// --- scan helpers ---

type rowScanner interface{ Scan(dest ...any) error }

func scanExam(r rowScanner) (FinalExam, error) {
	var e FinalExam
	var status string
	var isPass int
	var ct sql.NullInt64
	if err := r.Scan(&e.ID, &e.ClassID, &e.EnrollmentID, &e.ExamCode, &status, &e.TotalMarks, &isPass, &ct); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return FinalExam{}, ErrExamNotFound
		}
		return FinalExam{}, err
	}
	e.Status = ExamStatus(status)
	e.IsPass = isPass == 1
	e.CompleteTime = timePtr(ct)
	return e, nil
}

func (s *SQLStore) getPartialBy(ctx context.Context, where string, args ...any) (Partial, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, exam_id, partial_type, status, config_version,
		weight, content_ref, duration_min, checklist_items_json, window_start, window_end,
		raw_score, max_score, normalized_score, actual_start_time, submitted_at
		FROM partials WHERE `+where, args...)
	var p Partial
	var typ, status, ij string
	var ws, we, st, sub sql.NullInt64
	err := row.Scan(&p.ID, &p.ExamID, &typ, &status, &p.ConfigVersion,
		&p.Weight, &p.ContentRef, &p.DurationMin, &ij, &ws, &we,
		&p.RawScore, &p.MaxScore, &p.NormalizedScore, &st, &sub)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Partial{}, ErrPartialNotFound
		}
		return Partial{}, err
	}
	if ij != "" && ij != "null" {
		if err := json.Unmarshal([]byte(ij), &p.Items); err != nil {
			return Partial{}, err
		}
	}
	p.Type = PartialType(typ)
	p.Status = PartialStatus(status)
	p.WindowStart = timePtr(ws)
	p.WindowEnd = timePtr(we)
	p.ActualStartTime = timePtr(st)
	p.SubmittedAt = timePtr(sub)
	p.Checklist, err = s.checklistFor(ctx, p.ID)
	return p, err
}

func (s *SQLStore) partialsForExam(ctx context.Context, examID string) ([]Partial, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM partials WHERE exam_id=$1 ORDER BY partial_type`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]Partial, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetPartial(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *SQLStore) checklistFor(ctx context.Context, partialID string) ([]ChecklistResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, description, passed
		FROM checklist_results WHERE partial_id=$1 ORDER BY seq`, partialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ChecklistResult
	for rows.Next() {
		var r ChecklistResult
		var passed int
		if err := rows.Scan(&r.Name, &r.Description, &passed); err != nil {
			return nil, err
		}
		r.Passed = passed == 1
		out = append(out, r)
	}
	return out, rows.Err()
}

func unixPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}
