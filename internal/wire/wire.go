// Package wire defines the proto contract of the remote query executor
// service. The descriptors are built programmatically so the module carries
// no generated code; transports construct messages dynamically against them
// and export-proto renders the .proto file for executor implementors.
package wire

import (
	"fmt"
	"sync"

	"github.com/jhump/protoreflect/v2/protobuilder"
	"google.golang.org/protobuf/reflect/protoreflect"
)

const (
	// ServiceName is the fully qualified gRPC service name executors expose.
	ServiceName = "graphpage.Executor"
	// MethodName is the single unary method of the service.
	MethodName = "Execute"
)

var (
	once sync.Once
	file protoreflect.FileDescriptor
)

func buildFile() (protoreflect.FileDescriptor, error) {
	fb := protobuilder.NewFile("graphpage/executor.proto")
	fb.SetPackageName("graphpage")
	fb.SetSyntax(protoreflect.Proto3)

	str := protobuilder.FieldTypeScalar(protoreflect.StringKind)

	sub := protobuilder.NewMessage("SubQuery")
	sub.SetComments(comment("One sub-query of a composite round. An absent cursor asks for the first page."))
	id := protobuilder.NewField("id", str)
	id.SetNumber(1)
	def := protobuilder.NewField("definition", str)
	def.SetNumber(2)
	cur := protobuilder.NewField("cursor", str)
	cur.SetNumber(3)
	// Explicit presence: "no cursor" and "" must stay distinct on the wire.
	cur.SetProto3Optional(true)
	sub.AddField(id)
	sub.AddField(def)
	sub.AddField(cur)

	req := protobuilder.NewMessage("ExecuteRequest")
	subQueries := protobuilder.NewField("sub_queries", protobuilder.FieldTypeMessage(sub))
	subQueries.SetNumber(1)
	subQueries.SetRepeated()
	req.AddField(subQueries)

	result := protobuilder.NewMessage("SubQueryResult")
	result.SetComments(comment("One sub-query's page. A present next_cursor signals more pages remain."))
	rid := protobuilder.NewField("id", str)
	rid.SetNumber(1)
	items := protobuilder.NewField("items", str)
	items.SetNumber(2)
	items.SetRepeated()
	items.SetComments(comment("JSON-encoded items of this page."))
	next := protobuilder.NewField("next_cursor", str)
	next.SetNumber(3)
	next.SetProto3Optional(true)
	result.AddField(rid)
	result.AddField(items)
	result.AddField(next)

	resp := protobuilder.NewMessage("ExecuteResponse")
	results := protobuilder.NewField("results", protobuilder.FieldTypeMessage(result))
	results.SetNumber(1)
	results.SetRepeated()
	resp.AddField(results)

	svc := protobuilder.NewService("Executor")
	m := protobuilder.NewMethod(MethodName,
		protobuilder.RpcTypeMessage(req, false),
		protobuilder.RpcTypeMessage(resp, false),
	)
	svc.AddMethod(m)

	fb.AddMessage(sub)
	fb.AddMessage(req)
	fb.AddMessage(result)
	fb.AddMessage(resp)
	fb.AddService(svc)
	return fb.Build()
}

func comment(text string) protobuilder.Comments {
	return protobuilder.Comments{LeadingComment: " " + text + "\n"}
}

// File returns the executor contract's file descriptor. The contract is
// static; a build failure is a programming error.
func File() protoreflect.FileDescriptor {
	once.Do(func() {
		fd, err := buildFile()
		if err != nil {
			panic(fmt.Sprintf("wire: building executor contract: %v", err))
		}
		file = fd
	})
	return file
}

// Service returns the descriptor of graphpage.Executor.
func Service() protoreflect.ServiceDescriptor {
	return File().Services().ByName("Executor")
}

// ExecuteMethod returns the descriptor of the Execute method.
func ExecuteMethod() protoreflect.MethodDescriptor {
	return Service().Methods().ByName(MethodName)
}

// Request returns the ExecuteRequest message descriptor.
func Request() protoreflect.MessageDescriptor {
	return File().Messages().ByName("ExecuteRequest")
}

// Response returns the ExecuteResponse message descriptor.
func Response() protoreflect.MessageDescriptor {
	return File().Messages().ByName("ExecuteResponse")
}

// SubQuery returns the SubQuery message descriptor.
func SubQuery() protoreflect.MessageDescriptor {
	return File().Messages().ByName("SubQuery")
}

// SubQueryResult returns the SubQueryResult message descriptor.
func SubQueryResult() protoreflect.MessageDescriptor {
	return File().Messages().ByName("SubQueryResult")
}
