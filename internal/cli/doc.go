// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package cli implements the parley command line.

Commands:

	parley                     Full-screen chat (line mode when stdin is not a TTY)
	parley plain               Line-mode chat
	parley status [--json]     Plan, quota and recent activity
	parley upgrade             Move to the Premium plan
	parley logout              Forget the stored access tokens
	parley export --format F   Export remote history (json, yaml, md)
	parley config show|path|get|set
	parley serve [--addr A]     Local development backend

Global flags:

	--config PATH   Config file (default ~/.parley/config.toml)
	--api-url URL   Override api.base_url
	--store NAME    Override store.backend (memory, file, sqlite)
	-v, --verbose   Debug logging
*/
package cli
