package resolve

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Vonnie2507/sms-inbox/internal/phone"
	"github.com/Vonnie2507/sms-inbox/internal/repo"
)

// LinkFinder is the slice of the message log the resolver needs.
type LinkFinder interface {
	FindRecentOutboundLink(ctx context.Context, variants []string) (*repo.OutboundLink, error)
}

// Identity is the resolved owner of a phone number. All fields are empty
// when the number is unknown.
type Identity struct {
	LinkedType  string
	LinkedID    string
	DisplayName string
}

// Resolver matches a phone number to a linked business record. A previous
// outbound link wins over a bare contact match because it carries actual
// business context for the number.
type Resolver struct {
	log      LinkFinder
	contacts repo.ContactDirectory
	logger   *slog.Logger
}

func NewResolver(log LinkFinder, contacts repo.ContactDirectory, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		log:      log,
		contacts: contacts,
		logger:   logger.With(slog.String("component", "resolver")),
	}
}

// Resolve tries, in order: the most recent outbound message with a record
// link across all number variants, then the contact directory. Lookup
// failures degrade to unresolved rather than failing the caller.
func (r *Resolver) Resolve(ctx context.Context, rawNumber, defaultCountryCode string) Identity {
	variants := phone.Variants(rawNumber, defaultCountryCode)

	link, err := r.log.FindRecentOutboundLink(ctx, variants)
	if err != nil {
		r.logger.Error("outbound link lookup failed", "phone", rawNumber, "error", err)
	}
	if link != nil {
		return Identity{
			LinkedType:  link.LinkedType,
			LinkedID:    link.LinkedID,
			DisplayName: link.ContactName,
		}
	}

	contact, err := r.contacts.FindByMobile(ctx, variants)
	if err != nil {
		r.logger.Error("contact lookup failed", "phone", rawNumber, "error", err)
	}
	if contact != nil {
		return Identity{
			LinkedType:  "Contact",
			LinkedID:    contact.ID,
			DisplayName: strings.TrimSpace(contact.FirstName + " " + contact.LastName),
		}
	}

	return Identity{}
}
