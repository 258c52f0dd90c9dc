// Package digester converts between Teams activities and the chatbot answer
// protocol. Inbound events become normalized messages for the backend;
// backend answers become Teams cards, attachments and text.
//
// Both directions classify their input by trying predicates in a fixed
// priority order and dispatch to the handler registered for the first match.
// A Digester holds no per-conversation state: session data is passed in by
// the caller on every call.
package digester

import (
	"log/slog"

	"teamsbridge/pkg/config"
	"teamsbridge/pkg/htmlblock"
	"teamsbridge/pkg/lang"
)

// Digester is safe for concurrent use.
type Digester struct {
	cfg       config.DigesterConfig
	lang      lang.Translator
	extractor *htmlblock.Extractor
	log       *slog.Logger

	inbound  []inboundRoute
	outbound []outboundRoute
}

// New builds a digester. A nil translator uses the default catalog.
func New(cfg config.DigesterConfig, translator lang.Translator, log *slog.Logger) *Digester {
	if log == nil {
		log = slog.Default()
	}
	if translator == nil {
		translator = lang.MustLoad()
	}

	d := &Digester{
		cfg:       cfg,
		lang:      translator,
		extractor: htmlblock.New(log, cfg.MaxTableCells),
		log:       log.With("component", "digester"),
	}
	d.inbound = d.inboundRoutes()
	d.outbound = d.outboundRoutes()
	return d
}

// violation reports an answer that matched a kind but lacks what the kind
// needs. In strict mode it becomes an error; otherwise the caller degrades.
func (d *Digester) violation(kind OutboundKind, detail string) error {
	d.log.Warn("malformed answer", "kind", string(kind), "detail", detail)
	if d.cfg.Strict {
		return NewError(ErrorContractViolation, string(kind)+": "+detail)
	}
	return nil
}
