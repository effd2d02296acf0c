// Package discovery resolves the base URLs plugins are reachable at.
//
// By default every plugin lives on this backend: internal URLs are built from
// backend.listen and external URLs from backend.baseUrl, both followed by
// /api/<pluginId>. Individual plugins can be pointed elsewhere:
//
//	discovery:
//	  endpoints:
//	    - target: https://search.internal/api/{{pluginId}}
//	      plugins: [search]
//	    - target:
//	        internal: http://catalog:7007/api/catalog
//	        external: https://backstage.example.com/api/catalog
//	      plugins: [catalog]
package discovery
