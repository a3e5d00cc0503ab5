// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package fetch

import (
	"io"
	"net/http"
)

func readAll(resp *http.Response) ([]byte, error) {
	return io.ReadAll(resp.Body)
}
