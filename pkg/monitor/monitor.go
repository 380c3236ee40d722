// Package monitor observes live DNS for tracked domains and diffs each
// observation against the previously stored snapshot.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/grlabs/grepp/pkg/db"
	"github.com/grlabs/grepp/pkg/notify"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
)

// Record types captured per snapshot.
const (
	TypeA     = "A"
	TypeAAAA  = "AAAA"
	TypeMX    = "MX"
	TypeNS    = "NS"
	TypeTXT   = "TXT"
	TypeCNAME = "CNAME"
)

// Records maps record type to its observed values. Value order is not
// significant; comparisons sort before diffing.
type Records map[string][]string

// Resolver looks up the record set for one domain. Lookup failures for a
// single type are not fatal; the type is simply absent from the result.
type Resolver interface {
	Lookup(ctx context.Context, domain string) (Records, error)
}

// NetResolver resolves through the system resolver.
type NetResolver struct {
	resolver net.Resolver
}

func (r *NetResolver) Lookup(ctx context.Context, domain string) (Records, error) {
	records := Records{}

	if ips, err := r.resolver.LookupIP(ctx, "ip", domain); err == nil {
		for _, ip := range ips {
			if ip.To4() != nil {
				records[TypeA] = append(records[TypeA], ip.String())
			} else {
				records[TypeAAAA] = append(records[TypeAAAA], ip.String())
			}
		}
	}
	if mxs, err := r.resolver.LookupMX(ctx, domain); err == nil {
		for _, mx := range mxs {
			records[TypeMX] = append(records[TypeMX], fmt.Sprintf("%d %s", mx.Pref, strings.TrimSuffix(mx.Host, ".")))
		}
	}
	if nss, err := r.resolver.LookupNS(ctx, domain); err == nil {
		for _, ns := range nss {
			records[TypeNS] = append(records[TypeNS], strings.TrimSuffix(ns.Host, "."))
		}
	}
	if txts, err := r.resolver.LookupTXT(ctx, domain); err == nil {
		records[TypeTXT] = append(records[TypeTXT], txts...)
	}
	if cname, err := r.resolver.LookupCNAME(ctx, domain); err == nil {
		cname = strings.TrimSuffix(cname, ".")
		if cname != "" && cname != domain {
			records[TypeCNAME] = append(records[TypeCNAME], cname)
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no DNS records resolved for %s", domain)
	}
	return records, nil
}

// CompareRecords diffs two record sets type by type, ignoring value order
// within a type. It returns one change per record type that differs.
func CompareRecords(old, current Records) []notify.Change {
	types := map[string]bool{}
	for t := range old {
		types[t] = true
	}
	for t := range current {
		types[t] = true
	}

	ordered := maps.Keys(types)
	sort.Strings(ordered)

	var changes []notify.Change
	for _, t := range ordered {
		oldVal := joinSorted(old[t])
		newVal := joinSorted(current[t])
		if oldVal != newVal {
			changes = append(changes, notify.Change{
				Type:     t,
				OldValue: oldVal,
				NewValue: newVal,
			})
		}
	}
	return changes
}

func joinSorted(values []string) string {
	if len(values) == 0 {
		return ""
	}
	sorted := make([]string, len(values))
	copy(sorted, values)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}

// Monitor runs DNS checks against local snapshots.
type Monitor struct {
	db       db.Database
	resolver Resolver
	log      *logrus.Entry
}

func New(database db.Database, resolver Resolver) *Monitor {
	if resolver == nil {
		resolver = &NetResolver{}
	}
	return &Monitor{
		db:       database,
		resolver: resolver,
		log:      logrus.WithField("component", "monitor"),
	}
}

// CheckDomain resolves the domain, stores the observation and returns the
// changes against the previous snapshot. The first observation of a domain
// establishes the baseline and reports no changes.
func (m *Monitor) CheckDomain(ctx context.Context, domain string) ([]notify.Change, error) {
	current, err := m.resolver.Lookup(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", domain, err)
	}

	raw, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}

	prev, err := m.db.LatestSnapshot(domain)
	if err != nil {
		return nil, err
	}
	if prev.ID == 0 {
		m.log.WithField("domain", domain).Info("first snapshot, establishing baseline")
		return nil, m.db.SaveSnapshot(domain, string(raw))
	}

	var old Records
	if err := json.Unmarshal([]byte(prev.Records), &old); err != nil {
		return nil, fmt.Errorf("decoding stored snapshot for %s: %w", domain, err)
	}

	changes := CompareRecords(old, current)
	if err := m.db.SaveSnapshot(domain, string(raw)); err != nil {
		return nil, err
	}

	if len(changes) > 0 {
		m.log.WithFields(logrus.Fields{
			"domain":  domain,
			"changes": len(changes),
		}).Warn("DNS records changed")
	}
	return changes, nil
}
