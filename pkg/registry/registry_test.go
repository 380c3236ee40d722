package registry

import (
	"errors"
	"testing"

	"github.com/grlabs/grepp/pkg/db"
	"github.com/grlabs/grepp/pkg/epp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedExec replays canned responses and records every command so tests
// can assert which registry calls were (and were not) made.
type scriptedExec struct {
	t         *testing.T
	responses []func(cmd epp.Command) (*epp.Result, error)
	commands  []epp.Command
}

func (s *scriptedExec) Execute(cmd epp.Command) (*epp.Result, error) {
	s.commands = append(s.commands, cmd)
	require.NotEmpty(s.t, s.responses, "unexpected registry call: %T", cmd)
	next := s.responses[0]
	s.responses = s.responses[1:]
	return next(cmd)
}

func ok(res epp.Result) func(epp.Command) (*epp.Result, error) {
	res.Code = epp.CodeOK
	res.Success = true
	return func(epp.Command) (*epp.Result, error) { return &res, nil }
}

func fail(code int, msg string) func(epp.Command) (*epp.Result, error) {
	return func(epp.Command) (*epp.Result, error) {
		return &epp.Result{Code: code, Message: msg}, &epp.RegistryError{Code: code, Message: msg}
	}
}

func TestRegisterAbortsWhenContactIDUnavailable(t *testing.T) {
	exec := &scriptedExec{t: t, responses: []func(epp.Command) (*epp.Result, error){
		ok(epp.Result{Checks: []epp.CheckResult{{ID: "REG_x", Available: false}}}),
	}}
	ops := New(exec, "REG", DefaultContact{})

	_, err := ops.Register("example.gr", 2, []string{"ns1.example.gr"}, RegistrantInfo{
		Name:  "Maria Papadopoulou",
		Email: "maria@example.gr",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")

	// Only the contact-check went out; no contact-create, no domain-create
	require.Len(t, exec.commands, 1)
	_, isCheck := exec.commands[0].(epp.ContactCheck)
	assert.True(t, isCheck)
}

func TestRegisterReusesRegistrantWithoutDefaults(t *testing.T) {
	exec := &scriptedExec{t: t, responses: []func(epp.Command) (*epp.Result, error){
		func(cmd epp.Command) (*epp.Result, error) {
			check := cmd.(epp.ContactCheck)
			return &epp.Result{Code: epp.CodeOK, Success: true,
				Checks: []epp.CheckResult{{ID: check.IDs[0], Available: true}}}, nil
		},
		ok(epp.Result{}), // contact-create
		func(cmd epp.Command) (*epp.Result, error) {
			create := cmd.(epp.DomainCreate)
			assert.Equal(t, "example.gr", create.Domain)
			assert.Len(t, create.Contacts, 3)
			for _, ref := range create.Contacts {
				assert.Equal(t, create.Registrant, ref.ID)
			}
			assert.NotEmpty(t, create.Password)
			return &epp.Result{Code: epp.CodePending, Success: true}, nil
		},
	}}
	ops := New(exec, "REG", DefaultContact{})

	result, err := ops.Register("example.gr", 2, []string{"ns1.example.gr"}, RegistrantInfo{
		Name:  "Maria Papadopoulou",
		Email: "maria@example.gr",
	})
	require.NoError(t, err)
	assert.True(t, result.Pending)
	assert.Equal(t, result.RegistrantID, result.ContactIDs["admin"])
	require.Len(t, exec.commands, 3)
}

func TestRegisterSanitizesDomain(t *testing.T) {
	exec := &scriptedExec{t: t, responses: []func(epp.Command) (*epp.Result, error){
		func(cmd epp.Command) (*epp.Result, error) {
			check := cmd.(epp.ContactCheck)
			return &epp.Result{Code: epp.CodeOK, Success: true,
				Checks: []epp.CheckResult{{ID: check.IDs[0], Available: true}}}, nil
		},
		ok(epp.Result{}),
		func(cmd epp.Command) (*epp.Result, error) {
			assert.Equal(t, "παραδειγμα.gr", cmd.(epp.DomainCreate).Domain)
			return &epp.Result{Code: epp.CodeOK, Success: true}, nil
		},
	}}
	ops := New(exec, "REG", DefaultContact{})

	_, err := ops.Register("Παράδειγμα.GR", 2, nil, RegistrantInfo{Name: "x", Email: "x@example.gr"})
	require.NoError(t, err)
}

func TestRenewFetchesCurrentExpiryFirst(t *testing.T) {
	exec := &scriptedExec{t: t, responses: []func(epp.Command) (*epp.Result, error){
		ok(epp.Result{Domain: &epp.DomainData{Name: "example.gr", Expires: "2026-03-01T00:00:00Z"}}),
		func(cmd epp.Command) (*epp.Result, error) {
			renew := cmd.(epp.DomainRenew)
			assert.Equal(t, "2026-03-01", renew.CurExpDate)
			assert.Equal(t, 2, renew.Years)
			return &epp.Result{Code: epp.CodeOK, Success: true,
				Domain: &epp.DomainData{Name: "example.gr", Expires: "2028-03-01T00:00:00Z"}}, nil
		},
	}}
	ops := New(exec, "REG", DefaultContact{})

	expires, err := ops.Renew("example.gr", 2)
	require.NoError(t, err)
	assert.Equal(t, "2028-03-01T00:00:00Z", expires)
}

func TestSetNameServersPartialFailureIsDistinguishable(t *testing.T) {
	exec := &scriptedExec{t: t, responses: []func(epp.Command) (*epp.Result, error){
		ok(epp.Result{Domain: &epp.DomainData{Name: "example.gr", Nameservers: []string{"old1.example.gr", "old2.example.gr"}}}),
		ok(epp.Result{}), // rem succeeds
		fail(2400, "command failed"), // add fails
	}}
	ops := New(exec, "REG", DefaultContact{})

	err := ops.SetNameServers("example.gr", []string{"new1.example.gr"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNameserversRemoved))

	// And distinguishable from the missing-input validation error
	err = ops.SetNameServers("example.gr", nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNameserversRemoved))
}

func TestSetNameServersSkipsRemoveWhenNoneDelegated(t *testing.T) {
	exec := &scriptedExec{t: t, responses: []func(epp.Command) (*epp.Result, error){
		ok(epp.Result{Domain: &epp.DomainData{Name: "example.gr"}}),
		func(cmd epp.Command) (*epp.Result, error) {
			update := cmd.(epp.DomainUpdate)
			assert.Equal(t, []string{"ns1.example.gr"}, update.Add.Nameservers)
			assert.Empty(t, update.Rem.Nameservers)
			return &epp.Result{Code: epp.CodeOK, Success: true}, nil
		},
	}}
	ops := New(exec, "REG", DefaultContact{})

	require.NoError(t, ops.SetNameServers("example.gr", []string{"ns1.example.gr"}))
	require.Len(t, exec.commands, 2)
}

func TestSetRegistrarLockIsIdempotent(t *testing.T) {
	exec := &scriptedExec{t: t, responses: []func(epp.Command) (*epp.Result, error){
		ok(epp.Result{Domain: &epp.DomainData{Name: "example.gr", Statuses: []string{"ok", StatusTransferLock}}}),
	}}
	ops := New(exec, "REG", DefaultContact{})

	// Already locked: no update command goes out
	require.NoError(t, ops.SetRegistrarLock("example.gr", true))
	require.Len(t, exec.commands, 1)
}

func TestRecallOutsideGraceWindow(t *testing.T) {
	exec := &scriptedExec{t: t, responses: []func(epp.Command) (*epp.Result, error){
		ok(epp.Result{Domain: &epp.DomainData{Name: "example.gr"}}), // no protocol in extension
	}}
	ops := New(exec, "REG", DefaultContact{})

	err := ops.RecallApplication("example.gr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grace window")
	require.Len(t, exec.commands, 1)
}

func TestRecallUsesProtocolFromInfo(t *testing.T) {
	exec := &scriptedExec{t: t, responses: []func(epp.Command) (*epp.Result, error){
		ok(epp.Result{Domain: &epp.DomainData{Name: "example.gr"},
			Extension: epp.ExtensionData{Protocol: "991234"}}),
		func(cmd epp.Command) (*epp.Result, error) {
			recall := cmd.(epp.DomainRecallApplication)
			assert.Equal(t, "991234", recall.Protocol)
			return &epp.Result{Code: epp.CodeOK, Success: true}, nil
		},
	}}
	ops := New(exec, "REG", DefaultContact{})

	require.NoError(t, ops.RecallApplication("example.gr"))
}

func TestRegisterNameserverRequiresIP(t *testing.T) {
	exec := &scriptedExec{t: t}
	ops := New(exec, "REG", DefaultContact{})

	err := ops.RegisterNameserver("ns1.example.gr", nil, nil)
	require.Error(t, err)
	assert.Empty(t, exec.commands, "validation failure must precede any registry call")
}

func TestSyncDomainMapsRegistryErrors(t *testing.T) {
	tests := []struct {
		name   string
		code   int
		status string
	}{
		{"not found means expired", epp.CodeObjectNotFound, db.StatusExpired},
		{"authorization means transferred away", epp.CodeAuthorization, db.StatusTransferredAway},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := &scriptedExec{t: t, responses: []func(epp.Command) (*epp.Result, error){
				fail(tc.code, "registry says no"),
			}}
			ops := New(exec, "REG", DefaultContact{})

			domain := &db.Domain{Name: "example.gr", Status: db.StatusActive}
			changed, err := ops.SyncDomain(domain)
			require.NoError(t, err)
			assert.True(t, changed)
			assert.Equal(t, tc.status, domain.Status)
		})
	}
}

func TestSyncDomainUpdatesDates(t *testing.T) {
	exec := &scriptedExec{t: t, responses: []func(epp.Command) (*epp.Result, error){
		ok(epp.Result{Domain: &epp.DomainData{
			Name:     "example.gr",
			Created:  "2024-01-15T09:00:00Z",
			Expires:  "2026-01-15T09:00:00Z",
			Statuses: []string{"ok"},
		}}),
	}}
	ops := New(exec, "REG", DefaultContact{})

	domain := &db.Domain{Name: "example.gr", Status: db.StatusActive}
	changed, err := ops.SyncDomain(domain)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2026, domain.Expires.Year())
	assert.False(t, domain.PendingDelete)
	assert.False(t, domain.LastSynced.IsZero())
}

func TestSyncDomainTransportErrorPropagates(t *testing.T) {
	exec := &scriptedExec{t: t, responses: []func(epp.Command) (*epp.Result, error){
		func(epp.Command) (*epp.Result, error) {
			return nil, &epp.TransportError{Status: 502}
		},
	}}
	ops := New(exec, "REG", DefaultContact{})

	domain := &db.Domain{Name: "example.gr", Status: db.StatusActive}
	_, err := ops.SyncDomain(domain)
	require.Error(t, err)
	assert.True(t, epp.IsTransport(err))
	assert.Equal(t, db.StatusActive, domain.Status)
}

func TestGetContactsFetchesEveryRole(t *testing.T) {
	exec := &scriptedExec{t: t, responses: []func(epp.Command) (*epp.Result, error){
		ok(epp.Result{Domain: &epp.DomainData{
			Name:       "example.gr",
			Registrant: "REG_owner",
			Contacts:   map[string]string{"admin": "REG_admin"},
		}}),
		func(cmd epp.Command) (*epp.Result, error) {
			info := cmd.(epp.ContactInfo)
			return &epp.Result{Code: epp.CodeOK, Success: true,
				Contact: &epp.ContactData{ID: info.ID, Email: info.ID + "@example.gr"}}, nil
		},
		func(cmd epp.Command) (*epp.Result, error) {
			info := cmd.(epp.ContactInfo)
			return &epp.Result{Code: epp.CodeOK, Success: true,
				Contact: &epp.ContactData{ID: info.ID, Email: info.ID + "@example.gr"}}, nil
		},
	}}
	ops := New(exec, "REG", DefaultContact{})

	contacts, err := ops.GetContacts("example.gr")
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "REG_owner", contacts["registrant"].ID)
	assert.Equal(t, "REG_admin", contacts["admin"].ID)
}

func TestUpdateRegistrantTargetsRegistrantContact(t *testing.T) {
	exec := &scriptedExec{t: t, responses: []func(epp.Command) (*epp.Result, error){
		ok(epp.Result{Domain: &epp.DomainData{Name: "example.gr", Registrant: "REG_owner"}}),
		func(cmd epp.Command) (*epp.Result, error) {
			update := cmd.(epp.ContactUpdate)
			assert.Equal(t, "REG_owner", update.ID)
			require.NotNil(t, update.Chg)
			assert.Equal(t, "new@example.gr", update.Chg.Email)
			return &epp.Result{Code: epp.CodeOK, Success: true}, nil
		},
	}}
	ops := New(exec, "REG", DefaultContact{})

	err := ops.UpdateRegistrant("example.gr", epp.ContactChange{Email: "new@example.gr"})
	require.NoError(t, err)
	require.Len(t, exec.commands, 2)
}

func TestUpdateRegistrantWithoutRegistrantFails(t *testing.T) {
	exec := &scriptedExec{t: t, responses: []func(epp.Command) (*epp.Result, error){
		ok(epp.Result{Domain: &epp.DomainData{Name: "example.gr"}}),
	}}
	ops := New(exec, "REG", DefaultContact{})

	err := ops.UpdateRegistrant("example.gr", epp.ContactChange{Email: "new@example.gr"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no registrant contact")
}
