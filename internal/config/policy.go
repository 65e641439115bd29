package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nekogravitycat/pet-booking-backend/internal/booking"
)

// PolicyFile is the YAML layout of the cancellation policy:
//
//	cancellation:
//	  customer: [PENDING, CONFIRMED]
//	  owner: [PENDING, CONFIRMED, LATE]
//	  admin: [PENDING, CONFIRMED, LATE]
type PolicyFile struct {
	Cancellation map[string][]string `yaml:"cancellation"`
}

// cancellable is the widest source set a policy may name.
var cancellable = map[booking.Status]bool{
	booking.StatusPending:   true,
	booking.StatusConfirmed: true,
	booking.StatusLate:      true,
}

// LoadPolicy builds the state machine policy. The durations always come
// from cfg; the cancellation table comes from cfg.PolicyFile when set and
// the default table otherwise.
func LoadPolicy(cfg *Config) (booking.Policy, error) {
	policy := booking.DefaultPolicy()
	policy.PendingGrace = cfg.PendingGrace
	policy.AutoApproveAfter = cfg.AutoApproveAfter

	if cfg.PolicyFile == "" {
		return policy, nil
	}

	data, err := os.ReadFile(cfg.PolicyFile)
	if err != nil {
		return booking.Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	table, err := ParseCancellation(data)
	if err != nil {
		return booking.Policy{}, err
	}
	policy.Cancellation = table
	return policy, nil
}

// ParseCancellation decodes and validates a policy document.
func ParseCancellation(data []byte) (map[booking.Role][]booking.Status, error) {
	var doc PolicyFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}
	if len(doc.Cancellation) == 0 {
		return nil, errors.New("policy file has no cancellation table")
	}

	table := make(map[booking.Role][]booking.Status, len(doc.Cancellation))
	for rawRole, rawStatuses := range doc.Cancellation {
		role, err := booking.ParseRole(rawRole)
		if err != nil {
			return nil, fmt.Errorf("policy file: %w", err)
		}
		if role == booking.RoleSystem {
			return nil, errors.New("policy file: the system role cannot cancel")
		}

		statuses := make([]booking.Status, 0, len(rawStatuses))
		for _, raw := range rawStatuses {
			st, err := booking.ParseStatus(raw)
			if err != nil {
				return nil, fmt.Errorf("policy file: %w", err)
			}
			if !cancellable[st] {
				return nil, fmt.Errorf("policy file: %s bookings cannot be cancelled", st)
			}
			statuses = append(statuses, st)
		}
		table[role] = statuses
	}
	return table, nil
}

