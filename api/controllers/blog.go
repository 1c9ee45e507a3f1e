package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/zm-marketplace-backend/api/responses"
	"github.com/angelmondragon/zm-marketplace-backend/api/validators"
	"github.com/angelmondragon/zm-marketplace-backend/internal/blog"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zm-marketplace-backend/pkg/errors"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/logger"
)

type createPostRequest struct {
	Title   string   `json:"title" validate:"required,max=200"`
	Excerpt *string  `json:"excerpt,omitempty" validate:"omitempty,max=500"`
	Content string   `json:"content" validate:"required"`
	Tags    []string `json:"tags,omitempty" validate:"omitempty,max=10,dive,max=40"`
	Publish bool     `json:"publish"`
}

type updatePostRequest struct {
	Title   *string   `json:"title,omitempty" validate:"omitempty,max=200"`
	Excerpt *string   `json:"excerpt,omitempty" validate:"omitempty,max=500"`
	Content *string   `json:"content,omitempty"`
	Tags    *[]string `json:"tags,omitempty" validate:"omitempty,max=10,dive,max=40"`
	Publish *bool     `json:"publish,omitempty"`
}

type commentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type moderationRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

func blogUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "blog service unavailable")
}

// BlogPostList returns published, approved posts, optionally filtered by tag.
func BlogPostList(svc blog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, blogUnavailable())
			return
		}
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListPublicPosts(r.Context(), validators.ParseOptionalQuery(r, "tag"), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, blog.NewPublicPostPage(page))
	}
}

// BlogPostGet returns a visible post by slug.
func BlogPostGet(svc blog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, blogUnavailable())
			return
		}

		post, err := svc.GetPublicPost(r.Context(), strings.TrimSpace(chi.URLParam(r, "slug")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, blog.NewPublicPostDTO(post))
	}
}

// BlogPostCreate stores a post authored by the caller; it is held for approval.
func BlogPostCreate(svc blog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, blogUnavailable())
			return
		}
		authorID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createPostRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		post, err := svc.CreatePost(r.Context(), authorID, blog.PostInput{
			Title:   body.Title,
			Excerpt: body.Excerpt,
			Content: body.Content,
			Tags:    body.Tags,
			Publish: body.Publish,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, blog.NewAuthorPostDTO(post))
	}
}

// BlogPostUpdate patches one of the caller's posts.
func BlogPostUpdate(svc blog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, blogUnavailable())
			return
		}
		authorID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		postID, err := validators.ParseUUIDParam(r, "postId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updatePostRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		post, err := svc.UpdatePost(r.Context(), postID, authorID, blog.PostPatch{
			Title:   body.Title,
			Excerpt: body.Excerpt,
			Content: body.Content,
			Tags:    body.Tags,
			Publish: body.Publish,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, blog.NewAuthorPostDTO(post))
	}
}

// BlogCommentList returns the approved comments of a post.
func BlogCommentList(svc blog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, blogUnavailable())
			return
		}
		postID, err := validators.ParseUUIDParam(r, "postId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListApprovedComments(r.Context(), postID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, blog.NewCommentPage(page))
	}
}

// BlogCommentCreate submits a comment for moderation.
func BlogCommentCreate(svc blog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, blogUnavailable())
			return
		}
		userID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		postID, err := validators.ParseUUIDParam(r, "postId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body commentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		comment, err := svc.AddComment(r.Context(), postID, userID, body.Content)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, blog.NewCommentDTO(comment))
	}
}

// AdminPendingComments returns the moderation queue.
func AdminPendingComments(svc blog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, blogUnavailable())
			return
		}
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListPendingComments(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, blog.NewCommentPage(page))
	}
}

// AdminModerateComment applies the given moderation status to a comment.
func AdminModerateComment(svc blog.Service, status enums.CommentStatus, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, blogUnavailable())
			return
		}
		moderatorID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		commentID, err := validators.ParseUUIDParam(r, "commentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body moderationRequest
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		comment, err := svc.Moderate(r.Context(), commentID, status, moderatorID, body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, blog.NewCommentDTO(comment))
	}
}
