// Package render produces the files the docker service is started from.
//
// A [Pipeline] collects everything the service needs before touching the
// disk: the operator configuration, the package source, the dockerd
// options and the proxy settings. It then writes daemon.json through the
// daemon configuration engine and, second, one service artifact:
//
//   - service mode: a systemd drop-in for docker.service carrying the proxy
//     environment and the dockerd command line;
//   - otherwise: the /etc/default/docker environment file.
//
// Both files are written on every call. Each write is atomic on its own,
// but the pair is not: if the second write fails, daemon.json has already
// been replaced.
package render
