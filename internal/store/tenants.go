package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sweeney/stockwise/internal/tenant"
)

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// CreateNetwork inserts an active network with a generated ID.
func (db *DB) CreateNetwork(ctx context.Context, name string) (tenant.NetworkConfig, error) {
	n := tenant.NetworkConfig{
		NetworkID: newID(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Status:    tenant.NetworkActive,
	}
	_, err := db.ExecContext(ctx, db.Q(`INSERT INTO networks (id, name, status, created_at) VALUES (?, ?, ?, ?)`),
		n.NetworkID, n.Name, string(n.Status), formatTime(n.CreatedAt))
	if err != nil {
		return tenant.NetworkConfig{}, wrapWrite("create network", err)
	}
	db.changed(Change{Kind: KindNetworks})
	return n, nil
}

func (db *DB) GetNetwork(ctx context.Context, networkID string) (tenant.NetworkConfig, error) {
	var n tenant.NetworkConfig
	var status, created string
	err := db.QueryRowContext(ctx, db.Q(`SELECT id, name, status, created_at FROM networks WHERE id = ?`), networkID).
		Scan(&n.NetworkID, &n.Name, &status, &created)
	if err != nil {
		return tenant.NetworkConfig{}, notFound("get network", err)
	}
	n.Status = tenant.NetworkStatus(status)
	n.CreatedAt = parseTime(created)
	return n, nil
}

func (db *DB) ListNetworks(ctx context.Context) ([]tenant.NetworkConfig, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, status, created_at FROM networks ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list networks: %w", err)
	}
	defer rows.Close()

	out := []tenant.NetworkConfig{}
	for rows.Next() {
		var n tenant.NetworkConfig
		var status, created string
		if err := rows.Scan(&n.NetworkID, &n.Name, &status, &created); err != nil {
			return nil, fmt.Errorf("scan network: %w", err)
		}
		n.Status = tenant.NetworkStatus(status)
		n.CreatedAt = parseTime(created)
		out = append(out, n)
	}
	return out, rows.Err()
}

// UpdateNetwork saves name and status.
func (db *DB) UpdateNetwork(ctx context.Context, n tenant.NetworkConfig) error {
	if !n.Status.Valid() {
		return fmt.Errorf("update network: %w: status %q", ErrInvalid, n.Status)
	}
	res, err := db.ExecContext(ctx, db.Q(`UPDATE networks SET name = ?, status = ? WHERE id = ?`),
		n.Name, string(n.Status), n.NetworkID)
	if err != nil {
		return wrapWrite("update network", err)
	}
	if err := expectRow("update network", res); err != nil {
		return err
	}
	db.changed(Change{Kind: KindNetworks})
	return nil
}

func (db *DB) DeleteNetwork(ctx context.Context, networkID string) error {
	res, err := db.ExecContext(ctx, db.Q(`DELETE FROM networks WHERE id = ?`), networkID)
	if err != nil {
		return fmt.Errorf("delete network: %w", err)
	}
	if err := expectRow("delete network", res); err != nil {
		return err
	}
	db.changed(Change{Kind: KindNetworks})
	return nil
}

// CreateLocation inserts an active location. An empty timezone becomes UTC.
func (db *DB) CreateLocation(ctx context.Context, networkID, name, timezone string) (tenant.LocationConfig, error) {
	if timezone == "" {
		timezone = tenant.DefaultTimezone
	}
	l := tenant.LocationConfig{
		LocationID: newID(),
		NetworkID:  networkID,
		Name:       name,
		Timezone:   timezone,
		CreatedAt:  time.Now().UTC(),
		Status:     tenant.LocationActive,
	}
	_, err := db.ExecContext(ctx, db.Q(`INSERT INTO locations (id, network_id, name, timezone, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		l.LocationID, l.NetworkID, l.Name, l.Timezone, string(l.Status), formatTime(l.CreatedAt))
	if err != nil {
		return tenant.LocationConfig{}, wrapWrite("create location", err)
	}
	db.changed(Change{Kind: KindLocations, NetworkID: networkID})
	return l, nil
}

func (db *DB) GetLocation(ctx context.Context, networkID, locationID string) (tenant.LocationConfig, error) {
	var l tenant.LocationConfig
	var status, created string
	err := db.QueryRowContext(ctx, db.Q(`SELECT id, network_id, name, timezone, status, created_at FROM locations WHERE network_id = ? AND id = ?`),
		networkID, locationID).Scan(&l.LocationID, &l.NetworkID, &l.Name, &l.Timezone, &status, &created)
	if err != nil {
		return tenant.LocationConfig{}, notFound("get location", err)
	}
	l.Status = tenant.LocationStatus(status)
	l.CreatedAt = parseTime(created)
	return l, nil
}

func (db *DB) ListLocations(ctx context.Context, networkID string) ([]tenant.LocationConfig, error) {
	rows, err := db.QueryContext(ctx, db.Q(`SELECT id, network_id, name, timezone, status, created_at FROM locations WHERE network_id = ? ORDER BY name, id`), networkID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	out := []tenant.LocationConfig{}
	for rows.Next() {
		var l tenant.LocationConfig
		var status, created string
		if err := rows.Scan(&l.LocationID, &l.NetworkID, &l.Name, &l.Timezone, &status, &created); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		l.Status = tenant.LocationStatus(status)
		l.CreatedAt = parseTime(created)
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpdateLocation saves name, timezone and status.
func (db *DB) UpdateLocation(ctx context.Context, l tenant.LocationConfig) error {
	if !l.Status.Valid() {
		return fmt.Errorf("update location: %w: status %q", ErrInvalid, l.Status)
	}
	if l.Timezone == "" {
		l.Timezone = tenant.DefaultTimezone
	}
	res, err := db.ExecContext(ctx, db.Q(`UPDATE locations SET name = ?, timezone = ?, status = ? WHERE network_id = ? AND id = ?`),
		l.Name, l.Timezone, string(l.Status), l.NetworkID, l.LocationID)
	if err != nil {
		return wrapWrite("update location", err)
	}
	if err := expectRow("update location", res); err != nil {
		return err
	}
	db.changed(Change{Kind: KindLocations, NetworkID: l.NetworkID})
	return nil
}

func (db *DB) DeleteLocation(ctx context.Context, networkID, locationID string) error {
	res, err := db.ExecContext(ctx, db.Q(`DELETE FROM locations WHERE network_id = ? AND id = ?`), networkID, locationID)
	if err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	if err := expectRow("delete location", res); err != nil {
		return err
	}
	db.changed(Change{Kind: KindLocations, NetworkID: networkID})
	return nil
}

// SetMember grants uid a role, replacing any existing role.
func (db *DB) SetMember(ctx context.Context, networkID, uid string, role tenant.Role) error {
	_, err := db.ExecContext(ctx, db.Q(`INSERT INTO members (network_id, uid, role) VALUES (?, ?, ?)
		ON CONFLICT (network_id, uid) DO UPDATE SET role = excluded.role`), networkID, uid, string(role))
	if err != nil {
		return wrapWrite("set member", err)
	}
	db.changed(Change{Kind: KindMembers, NetworkID: networkID})
	return nil
}

func (db *DB) ListMembers(ctx context.Context, networkID string) ([]tenant.MemberConfig, error) {
	rows, err := db.QueryContext(ctx, db.Q(`SELECT network_id, uid, role FROM members WHERE network_id = ? ORDER BY uid`), networkID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	out := []tenant.MemberConfig{}
	for rows.Next() {
		var m tenant.MemberConfig
		var role string
		if err := rows.Scan(&m.NetworkID, &m.UID, &role); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.Role = tenant.ParseRole(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (db *DB) DeleteMember(ctx context.Context, networkID, uid string) error {
	res, err := db.ExecContext(ctx, db.Q(`DELETE FROM members WHERE network_id = ? AND uid = ?`), networkID, uid)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if err := expectRow("delete member", res); err != nil {
		return err
	}
	db.changed(Change{Kind: KindMembers, NetworkID: networkID})
	return nil
}
