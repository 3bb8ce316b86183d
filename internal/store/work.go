package store

import (
	"context"

	"github.com/m3rciful/scholarbot/internal/models"
)

const (
	projectColumns    = `id, user_id, title, topic, page_count, word_count, status, created_at`
	chapterColumns    = `id, project_id, title, content, created_at`
	assignmentColumns = `id, user_id, topic, file_url, extracted_text, ai_response, created_at`
)

// CreateProject stores a draft project. WordCount is derived from PageCount when zero.
func (s *Store) CreateProject(ctx context.Context, p models.Project) (models.Project, error) {
	if p.WordCount == 0 {
		p.WordCount = p.PageCount * models.WordsPerPage
	}
	if p.Status == "" {
		p.Status = models.ProjectDraft
	}
	id, err := s.insertID(ctx, `
		INSERT INTO projects (user_id, title, topic, page_count, word_count, status)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		p.UserID, p.Title, p.Topic, p.PageCount, p.WordCount, p.Status)
	if err != nil {
		return models.Project{}, wrap("create project", err)
	}
	return s.GetProject(ctx, id)
}

func (s *Store) GetProject(ctx context.Context, id int64) (models.Project, error) {
	var p models.Project
	err := s.get(ctx, &p, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return p, wrap("get project", err)
}

func (s *Store) SetProjectStatus(ctx context.Context, id int64, status string) error {
	res, err := s.exec(ctx, `UPDATE projects SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return wrap("set project status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddChapter appends a generated chapter to a project.
func (s *Store) AddChapter(ctx context.Context, c models.ProjectChapter) (models.ProjectChapter, error) {
	id, err := s.insertID(ctx, `
		INSERT INTO project_chapters (project_id, title, content)
		VALUES (?, ?, ?)
		RETURNING id`,
		c.ProjectID, c.Title, c.Content)
	if err != nil {
		return models.ProjectChapter{}, wrap("add chapter", err)
	}
	var out models.ProjectChapter
	err = s.get(ctx, &out, `SELECT `+chapterColumns+` FROM project_chapters WHERE id = ?`, id)
	return out, wrap("get chapter", err)
}

func (s *Store) ListChapters(ctx context.Context, projectID int64) ([]models.ProjectChapter, error) {
	var out []models.ProjectChapter
	err := s.selectAll(ctx, &out, `SELECT `+chapterColumns+` FROM project_chapters WHERE project_id = ? ORDER BY id`, projectID)
	return out, wrap("list chapters", err)
}

func (s *Store) CreateAssignment(ctx context.Context, a models.Assignment) (models.Assignment, error) {
	id, err := s.insertID(ctx, `
		INSERT INTO assignments (user_id, topic, file_url, extracted_text, ai_response)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		a.UserID, a.Topic, a.FileURL, a.ExtractedText, a.AIResponse)
	if err != nil {
		return models.Assignment{}, wrap("create assignment", err)
	}
	var out models.Assignment
	err = s.get(ctx, &out, `SELECT `+assignmentColumns+` FROM assignments WHERE id = ?`, id)
	return out, wrap("get assignment", err)
}
