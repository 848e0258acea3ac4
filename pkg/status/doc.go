/*
Package status summarizes the status records of many services into one line.

	+----------+   +----------+   +----------+
	|  users   |   | messages |   |  ...     |
	| (record) |   | (record) |   | (record) |
	+----+-----+   +----+-----+   +----+-----+
	     |              |              |
	     +--------------+--------------+
	                    |
	             +------+------+
	             |  status.Get |
	             +------+------+
	                    |
	         { message, className, serviceName }

🎯 Purpose:
- Pick the single most relevant condition across an ordered list of services
- Render it for a terminal

🔄 Priority:
 1. an error with a non-empty message, reported as "<name>: <message>"
 2. a read in flight, reported as "<name> is loading"
 3. a write in flight, reported as "<name> is saving"
 4. idle, every field empty

Within a tier the earlier name in the list wins. Works over either record
backing since it only reads through record.Backing.

🔍 Example:

	st := status.Get(store.GetState(), record.Plain{}, "users", "messages")
	fmt.Println(status.FormatLine(st))
*/
package status
