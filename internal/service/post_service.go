package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"catlog/internal/domain"
	"catlog/internal/repository"
)

// PostService coordinates posts, comments, reactions and reports.
type PostService struct {
	logger   *zap.Logger
	posts    repository.PostRepository
	comments repository.CommentRepository
	social   repository.SocialRepository
	users    repository.UserRepository
}

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrEmptyContent    = errors.New("content is required")
	ErrNotProfessional = errors.New("only vet professionals can verify posts")
)

func NewPostService(
	logger *zap.Logger,
	posts repository.PostRepository,
	comments repository.CommentRepository,
	social repository.SocialRepository,
	users repository.UserRepository,
) *PostService {
	return &PostService{
		logger:   logger,
		posts:    posts,
		comments: comments,
		social:   social,
		users:    users,
	}
}

type PostInput struct {
	Title   string
	Content string
	Media   string
}

func (s *PostService) Create(ctx context.Context, authorID string, input PostInput) (domain.PostView, error) {
	if strings.TrimSpace(input.Content) == "" {
		return domain.PostView{}, ErrEmptyContent
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "This is the title"
	}
	now := time.Now().UTC()
	post := domain.Post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Title:     title,
		Content:   input.Content,
		Media:     input.Media,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return domain.PostView{}, err
	}
	return s.buildView(ctx, post)
}

type PostUpdateInput struct {
	Title   *string
	Content *string
	Media   *string
}

func (s *PostService) Update(ctx context.Context, authorID, postID string, input PostUpdateInput) (domain.PostView, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PostView{}, ErrPostNotFound
		}
		return domain.PostView{}, err
	}
	if post.AuthorID != authorID {
		return domain.PostView{}, ErrPostNotFound
	}
	if input.Title != nil {
		post.Title = *input.Title
	}
	if input.Content != nil {
		post.Content = *input.Content
	}
	if input.Media != nil {
		post.Media = *input.Media
	}
	post.UpdatedAt = time.Now().UTC()
	if err := s.posts.Update(ctx, post); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PostView{}, ErrPostNotFound
		}
		return domain.PostView{}, err
	}
	return s.buildView(ctx, post)
}

func (s *PostService) Delete(ctx context.Context, authorID, postID string) error {
	err := s.posts.Delete(ctx, postID, authorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrPostNotFound
	}
	return err
}

func (s *PostService) Get(ctx context.Context, postID string) (domain.PostView, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PostView{}, ErrPostNotFound
		}
		return domain.PostView{}, err
	}
	return s.buildView(ctx, post)
}

func (s *PostService) ListAll(ctx context.Context) ([]domain.PostView, error) {
	posts, err := s.posts.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.buildViews(ctx, posts)
}

func (s *PostService) ListByAuthor(ctx context.Context, authorID string) ([]domain.PostView, error) {
	posts, err := s.posts.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	return s.buildViews(ctx, posts)
}

// ListFollowing returns the feed of posts from followed users.
func (s *PostService) ListFollowing(ctx context.Context, followerID string) ([]domain.PostView, error) {
	posts, err := s.posts.ListFollowing(ctx, followerID)
	if err != nil {
		return nil, err
	}
	return s.buildViews(ctx, posts)
}

// Search splits the query into words and matches each against titles,
// content and comment text. Results come back ordered by professional
// verify count, then likes.
func (s *PostService) Search(ctx context.Context, query string) ([]domain.PostView, error) {
	words := strings.Fields(query)
	if len(words) == 0 {
		return nil, nil
	}
	posts, err := s.posts.Search(ctx, words)
	if err != nil {
		return nil, err
	}
	return s.buildViews(ctx, posts)
}

type CommentInput struct {
	PostID   string
	ParentID string
	Text     string
}

func (s *PostService) CreateComment(ctx context.Context, authorID string, input CommentInput) (domain.CommentView, error) {
	if strings.TrimSpace(input.Text) == "" {
		return domain.CommentView{}, ErrEmptyContent
	}
	if _, err := s.posts.GetByID(ctx, input.PostID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CommentView{}, ErrPostNotFound
		}
		return domain.CommentView{}, err
	}
	if input.ParentID != "" {
		parent, err := s.comments.GetByID(ctx, input.ParentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.CommentView{}, ErrCommentNotFound
			}
			return domain.CommentView{}, err
		}
		if parent.PostID != input.PostID {
			return domain.CommentView{}, ErrCommentNotFound
		}
	}

	comment := domain.Comment{
		ID:        uuid.NewString(),
		PostID:    input.PostID,
		ParentID:  input.ParentID,
		AuthorID:  authorID,
		Text:      input.Text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return domain.CommentView{}, err
	}

	author, err := s.users.GetSummary(ctx, authorID)
	if err != nil {
		return domain.CommentView{}, err
	}
	return domain.CommentView{Comment: comment, Author: author, Replies: []domain.CommentView{}}, nil
}

func (s *PostService) DeleteComment(ctx context.Context, authorID, commentID string) error {
	err := s.comments.Delete(ctx, commentID, authorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrCommentNotFound
	}
	return err
}

// ToggleLike likes the post if the user has not, unlikes otherwise.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID string) (string, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrPostNotFound
		}
		return "", err
	}
	created, err := s.social.ToggleLike(ctx, postID, userID)
	if err != nil {
		return "", err
	}
	if created {
		return "liked", nil
	}
	return "unliked", nil
}

// ToggleVerify records a professional's endorsement of a post. Only users
// holding professional status may verify.
func (s *PostService) ToggleVerify(ctx context.Context, userID, postID string) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	if !user.VetProfessional {
		return "", ErrNotProfessional
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrPostNotFound
		}
		return "", err
	}
	created, err := s.social.TogglePostVerify(ctx, postID, userID)
	if err != nil {
		return "", err
	}
	if created {
		return "verified", nil
	}
	return "unverified", nil
}

func (s *PostService) Report(ctx context.Context, userID, postID, reason string) (domain.Report, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Report{}, ErrPostNotFound
		}
		return domain.Report{}, err
	}
	if strings.TrimSpace(reason) == "" {
		reason = "No reason provided."
	}
	report := domain.Report{
		ID:         uuid.NewString(),
		PostID:     postID,
		ReportedBy: userID,
		Reason:     reason,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.social.CreateReport(ctx, report); err != nil {
		return domain.Report{}, err
	}
	return report, nil
}

func (s *PostService) buildViews(ctx context.Context, posts []domain.Post) ([]domain.PostView, error) {
	views := make([]domain.PostView, 0, len(posts))
	for _, post := range posts {
		view, err := s.buildView(ctx, post)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *PostService) buildView(ctx context.Context, post domain.Post) (domain.PostView, error) {
	author, err := s.users.GetSummary(ctx, post.AuthorID)
	if err != nil {
		return domain.PostView{}, err
	}

	likes, err := s.social.ListLikers(ctx, post.ID)
	if err != nil {
		return domain.PostView{}, err
	}
	verifies, err := s.social.ListVerifiers(ctx, post.ID)
	if err != nil {
		return domain.PostView{}, err
	}

	flat, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		return domain.PostView{}, err
	}
	tree, err := s.buildCommentTree(ctx, flat)
	if err != nil {
		return domain.PostView{}, err
	}

	return domain.PostView{
		Post:          post,
		Author:        author,
		TotalLikes:    len(likes),
		Likes:         likes,
		TotalVerifies: len(verifies),
		Verifies:      verifies,
		TotalComments: len(flat),
		Comments:      tree,
	}, nil
}

// buildCommentTree nests replies under their parents, preserving
// creation order at each level.
func (s *PostService) buildCommentTree(ctx context.Context, flat []domain.Comment) ([]domain.CommentView, error) {
	authors := make(map[string]domain.UserSummary)
	views := make(map[string]*domain.CommentView, len(flat))
	order := make([]string, 0, len(flat))

	for _, c := range flat {
		author, ok := authors[c.AuthorID]
		if !ok {
			var err error
			author, err = s.users.GetSummary(ctx, c.AuthorID)
			if err != nil {
				return nil, err
			}
			authors[c.AuthorID] = author
		}
		views[c.ID] = &domain.CommentView{Comment: c, Author: author, Replies: []domain.CommentView{}}
		order = append(order, c.ID)
	}

	var roots []domain.CommentView
	// Children attach bottom-up so each parent collects its full subtree.
	for i := len(order) - 1; i >= 0; i-- {
		view := views[order[i]]
		if view.ParentID == "" {
			continue
		}
		if parent, ok := views[view.ParentID]; ok {
			parent.Replies = append([]domain.CommentView{*view}, parent.Replies...)
		}
	}
	for _, id := range order {
		if views[id].ParentID == "" {
			roots = append(roots, *views[id])
		}
	}
	if roots == nil {
		roots = []domain.CommentView{}
	}
	return roots, nil
}
