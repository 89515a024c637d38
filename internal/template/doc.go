// Package template loads recipes: folders of content templates and shell
// script templates that provision one aspect of an Ubuntu server.
//
// # Template Organization
//
// Recipes are embedded in the binary below templates/, one folder per
// recipe. The folder name is the command name with hyphens replaced by
// underscores:
//
//	nginx_django/recipe.yaml          command line arguments and options
//	nginx_django/nginx                content template
//	nginx_django/gunicorn.service     content template
//	nginx_django/commands/install.sh  optional script templates
//	nginx_django/commands/before.sh
//	nginx_django/commands/after.sh
//
// # Content Templates
//
// A content template starts with a header followed by the content:
//
//	# nginx site forwarding to gunicorn.
//	mode: 0644
//	target: /etc/nginx/sites-available/$domain
//
//	server {
//	    server_name $domain;
//	    proxy_set_header Host $$host;
//	}
//
// Header comments describe the template. Valid keys are keep, mode and
// target; target must come last. Blank lines after target are skipped and
// everything from the first non-blank line on is content, comments included.
//
// Placeholders follow the rules of package subst; a literal "$" is written
// as "$$".
//
// # Target Paths
//
// Absolute targets are placed below the target folder, which makes it
// possible to render a complete server layout into a staging folder:
//
//	content, err := tmpl.Resolve(symbols, "/tmp/stage")
//	// content.TargetPath == "/tmp/stage/etc/nginx/sites-available/example.com"
package template
