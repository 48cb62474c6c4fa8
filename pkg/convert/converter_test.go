package convert_test

import (
	"reflect"

	"github.com/beevik/etree"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/angeloszaimis/response-router/pkg/convert"
	"github.com/angeloszaimis/response-router/pkg/mediatype"
)

type order struct {
	ID    string  `json:"id" xml:"id" yaml:"id"`
	Total float64 `json:"total" xml:"total" yaml:"total"`
}

var _ = Describe("Registry", func() {
	var reg *convert.Registry

	BeforeEach(func() {
		reg = convert.DefaultRegistry()
	})

	DescribeTable("Read",
		func(mt, body string, want order) {
			var got order
			Expect(reg.Read(&got, mediatype.MustParse(mt), []byte(body))).To(Succeed())
			Expect(got).To(Equal(want))
		},
		Entry("json", "application/json", `{"id":"o-1","total":12.5}`, order{ID: "o-1", Total: 12.5}),
		Entry("json suffix", "application/vnd.shop.order+json", `{"id":"o-2","total":1}`, order{ID: "o-2", Total: 1}),
		Entry("xml", "application/xml", `<order><id>o-3</id><total>3</total></order>`, order{ID: "o-3", Total: 3}),
		Entry("xml suffix", "application/atom+xml", `<order><id>o-4</id><total>4</total></order>`, order{ID: "o-4", Total: 4}),
		Entry("yaml", "application/yaml", "id: o-5\ntotal: 5.5\n", order{ID: "o-5", Total: 5.5}),
		Entry("text yaml", "text/yaml", "id: o-6\ntotal: 6\n", order{ID: "o-6", Total: 6}),
	)

	Context("when no converter fits", func() {
		It("should fail with ErrUnsupported", func() {
			var o order
			Expect(reg.Read(&o, mediatype.MustParse("image/png"), []byte{0x89})).To(MatchError(convert.ErrUnsupported))
		})

		It("should treat an absent content type as octet-stream", func() {
			var o order
			Expect(reg.Read(&o, mediatype.MediaType{}, []byte(`{}`))).To(MatchError(convert.ErrUnsupported))
		})

		It("should report readability", func() {
			Expect(reg.CanRead(reflect.TypeFor[order](), mediatype.Text)).To(BeFalse())
			Expect(reg.CanRead(reflect.TypeFor[order](), mediatype.Problem)).To(BeTrue())
		})
	})

	It("should reject a non-pointer destination", func() {
		err := reg.Read(order{}, mediatype.JSON, []byte(`{}`))
		Expect(err).To(MatchError(ContainSubstring("non-nil pointer")))
	})

	It("should report malformed bodies", func() {
		var o order
		err := reg.Read(&o, mediatype.JSON, []byte(`{"id":`))
		Expect(err).To(MatchError(ContainSubstring("json:")))
	})

	Describe("bytes and text", func() {
		It("should read raw bytes for any media type", func() {
			var raw []byte
			Expect(reg.Read(&raw, mediatype.MustParse("image/png"), []byte{1, 2, 3})).To(Succeed())
			Expect(raw).To(Equal([]byte{1, 2, 3}))
		})

		It("should read text and absent content types as strings", func() {
			var s, absent string
			Expect(reg.Read(&s, mediatype.Text, []byte("hello"))).To(Succeed())
			Expect(s).To(Equal("hello"))

			Expect(reg.Read(&absent, mediatype.MediaType{}, []byte("no header"))).To(Succeed())
			Expect(absent).To(Equal("no header"))
		})

		It("should decode the charset parameter", func() {
			var latin string
			mt := mediatype.MustParse("text/plain; charset=iso-8859-1")
			Expect(reg.Read(&latin, mt, []byte{'c', 'a', 'f', 0xe9})).To(Succeed())
			Expect(latin).To(Equal("café"))
		})

		It("should fill named string types", func() {
			type label string
			var named label
			Expect(reg.Read(&named, mediatype.Text, []byte("named"))).To(Succeed())
			Expect(named).To(Equal(label("named")))
		})
	})

	It("should read XML documents", func() {
		var doc *etree.Document
		Expect(reg.Read(&doc, mediatype.XML, []byte(`<feed><title>news</title></feed>`))).To(Succeed())
		Expect(doc).NotTo(BeNil())
		Expect(doc.FindElement("//title").Text()).To(Equal("news"))

		Expect(reg.Read(&doc, mediatype.XML, []byte(`   `))).NotTo(Succeed())
	})

	Describe("protobuf", func() {
		It("should read binary messages", func() {
			wire, err := proto.Marshal(wrapperspb.String("ping"))
			Expect(err).NotTo(HaveOccurred())

			var msg *wrapperspb.StringValue
			Expect(reg.Read(&msg, mediatype.Protobuf, wire)).To(Succeed())
			Expect(msg.GetValue()).To(Equal("ping"))
		})

		It("should read JSON into messages with protojson", func() {
			var st *structpb.Struct
			Expect(reg.Read(&st, mediatype.JSON, []byte(`{"happy":true}`))).To(Succeed())
			Expect(st.GetFields()["happy"].GetBoolValue()).To(BeTrue())
		})

		It("should write binary messages", func() {
			out, err := reg.Write(wrapperspb.String("pong"), mediatype.Protobuf)
			Expect(err).NotTo(HaveOccurred())

			var back wrapperspb.StringValue
			Expect(proto.Unmarshal(out, &back)).To(Succeed())
			Expect(back.GetValue()).To(Equal("pong"))
		})
	})

	Describe("Write", func() {
		o := order{ID: "o-9", Total: 9}

		It("should encode JSON", func() {
			b, err := reg.Write(o, mediatype.JSON)
			Expect(err).NotTo(HaveOccurred())
			Expect(b).To(MatchJSON(`{"id":"o-9","total":9}`))
		})

		DescribeTable("other media types",
			func(v any, mt mediatype.MediaType, want string) {
				b, err := reg.Write(v, mt)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(b)).To(ContainSubstring(want))
			},
			Entry("yaml", o, mediatype.YAML, "id: o-9"),
			Entry("xml", o, mediatype.XML, "<id>o-9</id>"),
			Entry("text", "plain", mediatype.Text, "plain"),
		)

		It("should fail for unsupported media types", func() {
			_, err := reg.Write(o, mediatype.MustParse("image/png"))
			Expect(err).To(MatchError(convert.ErrUnsupported))
		})
	})

	It("should consult prepended converters first", func() {
		reg := convert.NewRegistry(convert.JSON()).With(convert.Bytes())

		var raw []byte
		Expect(reg.Read(&raw, mediatype.JSON, []byte(`{"a":1}`))).To(Succeed())
		Expect(string(raw)).To(Equal(`{"a":1}`))
	})
})
