// Package security builds TLS client configurations from backend config.
//
//	tls:
//	  caFile: /etc/backend/ca.pem
//	  certFile: /etc/backend/client.pem
//	  keyFile: /etc/backend/client-key.pem
//	  minVersion: "1.3"
package security
