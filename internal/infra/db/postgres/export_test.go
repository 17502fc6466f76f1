package postgres

import "time"

func (s *IdempotencyStore) SetClock(now func() time.Time) { s.now = now }

func (s *OutboxStore) SetClock(now func() time.Time) { s.now = now }
