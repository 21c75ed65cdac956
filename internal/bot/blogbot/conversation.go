package blogbot

import (
	"sync"

	"bridgee/internal/domain/blog"
	blogsvc "bridgee/internal/usecase/blog"
)

type stage int

const (
	stageIdle stage = iota
	stageNewTitle
	stageNewContent
	stageNewAuthor
	stageNewImageURL
	stageEditSelectPost
	stageEditSelectField
	stageEditValue
)

type fieldChange struct {
	field blog.Field
	value string
}

// conversation is the multi-step state of one admin chat.
type conversation struct {
	stage stage
	draft blogsvc.Draft

	// edit flow: working is a local copy shown back to the admin; changes
	// are replayed onto the stored post on finish.
	postID  string
	working blog.Post
	field   blog.Field
	changes []fieldChange
}

func (c *conversation) editing() bool {
	return c.stage == stageEditSelectPost || c.stage == stageEditSelectField || c.stage == stageEditValue
}

func (c *conversation) creating() bool {
	return c.stage >= stageNewTitle && c.stage <= stageNewImageURL
}

type conversations struct {
	mu     sync.Mutex
	byChat map[int64]*conversation
}

func newConversations() *conversations {
	return &conversations{byChat: make(map[int64]*conversation)}
}

// get returns the chat's conversation, creating an idle one.
func (c *conversations) get(chatID int64) *conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv, ok := c.byChat[chatID]
	if !ok {
		conv = &conversation{}
		c.byChat[chatID] = conv
	}
	return conv
}

// reset replaces the chat's conversation with a fresh one in stage s.
func (c *conversations) reset(chatID int64, s stage) *conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv := &conversation{stage: s}
	c.byChat[chatID] = conv
	return conv
}

func (c *conversations) end(chatID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byChat, chatID)
}
