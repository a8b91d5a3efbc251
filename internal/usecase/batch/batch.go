// Package batch groups deduplicated articles into one delivery per topic.
package batch

import "newsbot/internal/domain/entity"

// Batches holds the articles of each topic in input order.
type Batches struct {
	order  []entity.TopicID
	byTopic map[entity.TopicID][]entity.Article
}

// Assemble groups articles by topic. Topics without articles are absent.
func Assemble(articles []entity.Article) Batches {
	b := Batches{byTopic: make(map[entity.TopicID][]entity.Article)}
	for _, a := range articles {
		if _, ok := b.byTopic[a.Topic]; !ok {
			b.order = append(b.order, a.Topic)
		}
		b.byTopic[a.Topic] = append(b.byTopic[a.Topic], a)
	}
	return b
}

// Topics returns the non-empty topics in first-seen order.
func (b Batches) Topics() []entity.TopicID {
	out := make([]entity.TopicID, len(b.order))
	copy(out, b.order)
	return out
}

// Articles returns the batch for topic, nil when the topic has none.
func (b Batches) Articles(topic entity.TopicID) []entity.Article {
	return b.byTopic[topic]
}

// Len is the number of non-empty topics.
func (b Batches) Len() int { return len(b.order) }

// Total is the number of articles across all topics.
func (b Batches) Total() int {
	n := 0
	for _, as := range b.byTopic {
		n += len(as)
	}
	return n
}
