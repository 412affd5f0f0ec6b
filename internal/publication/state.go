// Package publication описывает жизненный цикл публикации постов и комментариев:
// два устойчивых состояния (черновик и опубликовано) и переходы между ними.
//
// Переход определяется явно, сравнением флага is_published до и после записи.
// Событие PublishedEvent возникает только при смене false -> true.
package publication

import (
	"fmt"
	"time"
)

// State - состояние публикации сущности.
type State int

const (
	Draft State = iota
	Published
)

func (s State) String() string {
	if s == Published {
		return "published"
	}
	return "draft"
}

// StateOf переводит значение флага is_published в состояние.
func StateOf(isPublished bool) State {
	if isPublished {
		return Published
	}
	return Draft
}

// Transition - результат сравнения состояний до и после изменения.
type Transition int

const (
	// None - флаг не изменился (в том числе повторное сохранение опубликованного).
	None Transition = iota
	// Publish - черновик стал опубликованным.
	Publish
	// Unpublish - снятие с публикации, уведомлений не вызывает.
	Unpublish
)

func (t Transition) String() string {
	switch t {
	case Publish:
		return "publish"
	case Unpublish:
		return "unpublish"
	default:
		return "none"
	}
}

// Detect сравнивает сохраненные значения is_published до и после записи.
func Detect(before, after bool) Transition {
	switch {
	case StateOf(before) == StateOf(after):
		return None
	case after:
		return Publish
	default:
		return Unpublish
	}
}

// DetectCreate - новая сущность считается перешедшей из черновика.
func DetectCreate(published bool) Transition {
	return Detect(false, published)
}

// EntityType - тип публикуемой сущности.
type EntityType string

const (
	EntityPost    EntityType = "post"
	EntityComment EntityType = "comment"
)

// PublishedEvent порождается ровно один раз на каждый переход Draft -> Published.
type PublishedEvent struct {
	EntityType EntityType
	EntityID   uint
}

func (e PublishedEvent) String() string {
	return fmt.Sprintf("%s %d published", e.EntityType, e.EntityID)
}

// Event возвращает событие, если переход - это публикация.
func (t Transition) Event(entity EntityType, id uint) (PublishedEvent, bool) {
	if t != Publish {
		return PublishedEvent{}, false
	}
	return PublishedEvent{EntityType: entity, EntityID: id}, true
}

// Clock выдает время для pub_date. Дата никогда не уходит назад относительно
// предыдущего значения, даже если системные часы отстали.
type Clock func() time.Time

// Stamp возвращает новое значение pub_date для сохранения, не меньше previous.
func (c Clock) Stamp(previous time.Time) time.Time {
	now := time.Now
	if c != nil {
		now = c
	}
	t := now().UTC()
	if t.Before(previous) {
		return previous
	}
	return t
}
