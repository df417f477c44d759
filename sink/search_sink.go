package sink

import (
	"cipher-chat/domain/event"
	"cipher-chat/repositories"
	"context"
	"fmt"
	"log/slog"
)

// SearchSink feeds the full-text index. Transformed payloads are not indexed,
// their content is meaningless to a search.
type SearchSink struct {
	repository repositories.ISearchRepository
	log        *slog.Logger
}

func NewSearchSink(repository repositories.ISearchRepository, log *slog.Logger) SearchSink {
	return SearchSink{repository: repository, log: log}
}

func (s SearchSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessagePosted:
		if evt.Transformed {
			return nil
		}
		return s.repository.Index(toDiskMessage(evt))
	default:
		s.log.Debug(fmt.Sprintf("Not implemented event : %T", evt))
		return nil
	}
}
