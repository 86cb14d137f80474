/*
Package config loads the settings of a backup run.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|   YAML   | |   HCL    | |   JSON   |
	|  Parser  | |  Parser  | |  Parser  |
	+----------+ +----------+ +----------+

🎯 Purpose:
- Picks a parser from the config file extension
- Fills unset values from Default
- Validates the result before handing it to the CLI

Command line flags override whatever a file sets; the file itself is optional.

🔍 Example:

	cfg, err := config.Load(ctx, ".prdbackup.yaml")
	if err != nil {
		return err
	}
	fmt.Println(cfg) // /photos/PRD* -> /backup (move+convert)
*/
package config
