package soap

import "github.com/beevik/etree"

// FaultCode says which side of the exchange caused a fault
type FaultCode int

const (
	// FaultSender blames the message (SOAP 1.1 "Client")
	FaultSender FaultCode = iota
	// FaultReceiver blames the receiving access point (SOAP 1.1 "Server")
	FaultReceiver
)

// Response builds the empty acknowledgement envelope returned after a
// message has been stored. ns selects the SOAP version; unknown values
// fall back to SOAP 1.1.
func Response(ns string) ([]byte, error) {
	doc, env := newEnvelope(ns)
	env.CreateElement("S:Body")
	return doc.WriteToBytes()
}

// Fault builds a SOAP fault envelope
func Fault(ns string, code FaultCode, reason string) ([]byte, error) {
	doc, env := newEnvelope(ns)
	body := env.CreateElement("S:Body")
	fault := body.CreateElement("S:Fault")

	if ns == NsSOAP12 {
		value := "S:Sender"
		if code == FaultReceiver {
			value = "S:Receiver"
		}
		fault.CreateElement("S:Code").CreateElement("S:Value").SetText(value)
		text := fault.CreateElement("S:Reason").CreateElement("S:Text")
		text.CreateAttr("xml:lang", "en")
		text.SetText(reason)
		return doc.WriteToBytes()
	}

	faultCode := "S:Client"
	if code == FaultReceiver {
		faultCode = "S:Server"
	}
	fault.CreateElement("faultcode").SetText(faultCode)
	fault.CreateElement("faultstring").SetText(reason)
	return doc.WriteToBytes()
}

func newEnvelope(ns string) (*etree.Document, *etree.Element) {
	if ns != NsSOAP12 {
		ns = NsSOAP11
	}
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	env := doc.CreateElement("S:Envelope")
	env.CreateAttr("xmlns:S", ns)
	return doc, env
}
