// Package authz decides whether an actor may read or change a story or chapter.
//
// Rules are checked in a fixed order:
//  1. anonymous actors may only read;
//  2. soft-deleted resources are not found, for everybody including the author;
//  3. changes require the story author or an admin;
//  4. non-published resources are readable only by the author or an admin.
//
// Rule 4 answers Forbidden rather than NotFound, so the existence of a
// hidden chapter is visible to anyone who guesses its id.
package authz

import (
	"github.com/storytelling-api/internal/models"
	"github.com/storytelling-api/pkg/errorx"
)

// Actor is the authenticated caller. A nil *Actor is an anonymous caller.
type Actor struct {
	ID   int64
	Role models.Role
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == models.RoleAdmin
}

// Action is what the actor wants to do with the resource.
type Action int

const (
	Read Action = iota
	Update
	Delete
	// CreateChild covers adding a chapter to a story.
	CreateChild
)

func (a Action) mutates() bool {
	return a != Read
}

// Gate is the single place where ownership and visibility rules live.
type Gate struct{}

func NewGate() *Gate {
	return &Gate{}
}

// CanManage reports whether actor owns content written by authorID or is an admin.
func (g *Gate) CanManage(actor *Actor, authorID int64) bool {
	if actor == nil {
		return false
	}
	return actor.ID == authorID || actor.IsAdmin()
}

// Story authorizes action on story.
func (g *Gate) Story(actor *Actor, story *models.Story, action Action) error {
	if action.mutates() && actor == nil {
		return errorx.New(errorx.Unauthorized, "Authentication required")
	}
	if story == nil || story.DeletedAt != nil {
		return errorx.New(errorx.NotFound, "Story not found")
	}

	manage := g.CanManage(actor, story.AuthorID)
	if action.mutates() {
		if !manage {
			return errorx.New(errorx.Forbidden, "Only the author can change this story")
		}
		return nil
	}

	if story.Status != models.StatusPublished && !manage {
		return errorx.New(errorx.Forbidden, "Story is not published")
	}
	return nil
}

// Chapter authorizes action on chapter, deriving ownership from its parent story.
func (g *Gate) Chapter(actor *Actor, story *models.Story, chapter *models.Chapter, action Action) error {
	if action.mutates() && actor == nil {
		return errorx.New(errorx.Unauthorized, "Authentication required")
	}
	if story == nil || story.DeletedAt != nil {
		return errorx.New(errorx.NotFound, "Story not found")
	}
	if chapter == nil || chapter.DeletedAt != nil || chapter.StoryID != story.ID {
		return errorx.New(errorx.NotFound, "Chapter not found")
	}

	manage := g.CanManage(actor, story.AuthorID)
	if action.mutates() {
		if !manage {
			return errorx.New(errorx.Forbidden, "Only the author can change this chapter")
		}
		return nil
	}

	if !manage && (chapter.Status != models.StatusPublished || story.Status != models.StatusPublished) {
		return errorx.New(errorx.Forbidden, "Chapter is not published")
	}
	return nil
}

// VisibleChapters drops soft-deleted chapters unconditionally and hides
// non-published ones from everybody but the author and admins.
func (g *Gate) VisibleChapters(actor *Actor, story *models.Story, chapters []*models.Chapter) []*models.Chapter {
	manage := g.CanManage(actor, story.AuthorID)
	visible := make([]*models.Chapter, 0, len(chapters))
	for _, c := range chapters {
		if c.DeletedAt != nil {
			continue
		}
		if !manage && c.Status != models.StatusPublished {
			continue
		}
		visible = append(visible, c)
	}
	return visible
}

// StoryListScope fills the visibility part of a story filter for actor.
func (g *Gate) StoryListScope(actor *Actor, filter *models.StoryFilter) {
	filter.ViewerID = 0
	filter.IncludeHidden = false
	if actor == nil {
		return
	}
	filter.ViewerID = actor.ID
	filter.IncludeHidden = actor.IsAdmin()
}
