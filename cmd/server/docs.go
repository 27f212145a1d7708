// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// @title Setlist API
// @version 1.0
// @description Song recommendations from association rules mined over playlists.
// @description
// @description Train a model with `POST /train`, then ask for songs that go
// @description together with `POST /api/recommender`.
// @description
// @description ## Rate Limiting
// @description
// @description API routes are limited per client IP (100 requests per minute by
// @description default). `POST /train` has a stricter limit.
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @BasePath /
// @schemes http https

package main
