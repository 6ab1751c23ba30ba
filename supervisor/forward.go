// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor

import (
	"context"
	"log/slog"
	"syscall"
)

// forwardLoop forwards received signals one by one in the order they
// arrived.
func (s *Supervisor) forwardLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-s.signals:
			unixSig, ok := sig.(syscall.Signal)
			if !ok {
				continue
			}

			slog.Info("Received signal", slog.String("signal", sig.String()))

			if err := s.Forward(unixSig); err != nil {
				slog.Warn("Signal not forwarded", slog.Any("error", err))
			}
		}
	}
}
