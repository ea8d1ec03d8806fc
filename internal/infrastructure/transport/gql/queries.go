package gql

import "fmt"

const accountStateQuery = `query($address: String!) {
  accounts(filter: {id: {eq: $address}}) {
    acc_type
    balance(format: DEC)
    boc
    last_trans_lt(format: DEC)
    last_paid
  }
  transactions(
    filter: {account_addr: {eq: $address}}
    orderBy: [{path: "lt", direction: DESC}]
    limit: 1
  ) {
    id
    lt(format: DEC)
  }
}`

const transactionFields = `
    id
    lt(format: DEC)
    prev_trans_hash
    prev_trans_lt(format: DEC)
    now
    aborted
    orig_status_name
    end_status_name
    total_fees(format: DEC)
    in_message { ...MessageFields }
    out_messages { ...MessageFields }`

const messageFragment = `
fragment MessageFields on Message {
  id
  src
  dst
  value(format: DEC)
  bounce
  body
}`

const postRequestsMutation = `mutation($requests: [Request]) {
  postRequests(requests: $requests)
}`

// transactionsQuery returns the query of a page of transactions, newest
// first. With fromLt the page starts at that logical time.
func transactionsQuery(fromLt bool) string {
	args, filter := "$address: String!, $limit: Int", "account_addr: {eq: $address}"
	if fromLt {
		args += ", $fromLt: String"
		filter += ", lt: {le: $fromLt}"
	}
	return fmt.Sprintf(`query(%s) {
  transactions(
    filter: {%s}
    orderBy: [{path: "lt", direction: DESC}]
    limit: $limit
  ) {%s
  }
}
%s`, args, filter, transactionFields, messageFragment)
}
