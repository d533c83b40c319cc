package scanner

import (
	"iter"
	"net"
	"strconv"
)

// Task represents a single unit of scan work.
type Task struct {
	Method string `json:"method"`
	Host   string `json:"host"`
	Port   int    `json:"port"`
}

// Address returns host:port suitable for dialing.
func (t Task) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// Tasks builds the ordered cross product of hosts, ports and methods.
// Hosts are iterated outermost, then ports, then methods, so every method for
// a given host/port pair is adjacent.
func Tasks(hosts iter.Seq[string], ports []int, methods []string) iter.Seq[Task] {
	return func(yield func(Task) bool) {
		for host := range hosts {
			for _, port := range ports {
				for _, method := range methods {
					if !yield(Task{Method: method, Host: host, Port: port}) {
						return
					}
				}
			}
		}
	}
}
