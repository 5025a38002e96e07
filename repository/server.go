package repository

import "minivm/classfile"

// lookupRequest is the message an interpreter thread sends to ask the
// repository thread to resolve a class name, per spec.md §5.
type lookupRequest struct {
	name  string
	reply chan lookupReply
}

type lookupReply struct {
	class *classfile.Class
	err   error
}

// Server runs a Repository on a single owning goroutine and answers
// lookups sent over a channel, so that the repository thread is the
// exclusive mutator of the class map while other goroutines only ever
// read through Client (spec.md §5's repository-thread / interpreter-
// thread split).
type Server struct {
	repo     *Repository
	requests chan lookupRequest
	done     chan struct{}
}

// NewServer wraps repo and starts its request-serving goroutine.
func NewServer(repo *Repository) *Server {
	s := &Server{
		repo:     repo,
		requests: make(chan lookupRequest, 32),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Server) run() {
	for req := range s.requests {
		class, err := s.repo.LookupClass(req.name)
		req.reply <- lookupReply{class: class, err: err}
	}
	close(s.done)
}

// Stop closes the request channel; Repository snapshots already handed
// out remain valid lower bounds per spec.md §5's monotonicity guarantee.
func (s *Server) Stop() {
	close(s.requests)
	<-s.done
}

// Client is the interpreter-side handle to a Server: every class lookup
// blocks on a channel round-trip rather than touching the Repository's
// map directly.
type Client struct {
	requests chan<- lookupRequest
}

// NewClient returns a Client bound to s.
func NewClient(s *Server) *Client {
	return &Client{requests: s.requests}
}

// Lookup resolves a class name via the repository thread.
func (c *Client) Lookup(name string) (*classfile.Class, error) {
	reply := make(chan lookupReply, 1)
	c.requests <- lookupRequest{name: name, reply: reply}
	r := <-reply
	return r.class, r.err
}
