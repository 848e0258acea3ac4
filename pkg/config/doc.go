/*
Package config loads the reduxify run configuration.

	            +-------------+
	            |   Config    |
	            +------+------+
	                   |
	     +-------------+-------------+
	     |             |             |
	+----+----+   +----+----+   +----+----+
	|  YAML   |   |  JSON   |   |   HCL   |
	+---------+   +---------+   +---------+

🎯 Purpose:
- Names the services to reduxify, by path with an optional alias
- Picks the record variant (plain or persistent) and the remote client
- Seeds fixtures for the in-memory client
- Describes a script of calls, with runs of parallel steps

🔄 Flow:
1. Load reads the file and picks a parser by extension
2. The parser decodes strictly; unknown keys are errors
3. Validate fills defaults and cross-checks script and status names

🔍 Example (YAML):

	variant: persistent
	services:
	  - users
	  - path: /v1/messages
	    alias: messages
	fixtures:
	  users:
	    - name: alice
	script:
	  - service: users
	    method: find
	  - service: messages
	    method: create
	    data: {text: hi}
	    parallel: true
	  - service: messages
	    method: get
	    id: 1
	    parallel: true

🔍 Example (HCL):

	variant = "plain"
	service "users" {}
	service "messages" { path = "/v1/messages" }
	step {
	  service = "users"
	  method  = "find"
	  query   = { role = "admin" }
	}
*/
package config
